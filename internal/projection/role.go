package projection

import (
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// Role-change detection thresholds.
const (
	roleChangeMinutesDelta = 0.20 // |last5 vs last20 minutes| as a fraction
	usageSpikeDelta        = 0.25 // per-36 stat spike vs season baseline
)

// DetectRoleChange compares the player's last five games against the
// twenty-game baseline. A per-36 production spike against the season baseline
// takes priority over a minutes shift: minutes follow coaches' decisions and
// stick, production spikes usually do not.
func DetectRoleChange(logs []models.GameLog, stat models.StatType, seasonPer36 float64) models.RoleChange {
	if len(logs) < MinValidGames {
		return models.RoleChangeNone
	}

	if seasonPer36 > 0 {
		recentPer36 := recentPer36(logs, stat, 5)
		if recentPer36 > 0 && (recentPer36-seasonPer36)/seasonPer36 > usageSpikeDelta {
			return models.RoleChangeTemporarySpike
		}
	}

	recentMinutes := stats.Mean(statValues(logs, models.StatMinutes, 5))
	historicalMinutes := stats.Mean(statValues(logs, models.StatMinutes, 20))
	if historicalMinutes <= 0 {
		return models.RoleChangeNone
	}

	delta := (recentMinutes - historicalMinutes) / historicalMinutes
	switch {
	case delta >= roleChangeMinutesDelta:
		return models.RoleChangeIncrease
	case delta <= -roleChangeMinutesDelta:
		return models.RoleChangeDecrease
	default:
		return models.RoleChangeNone
	}
}

// recentPer36 returns the minutes-weighted per-36 production over the last n
// games.
func recentPer36(logs []models.GameLog, stat models.StatType, n int) float64 {
	if n > len(logs) {
		n = len(logs)
	}
	totalStat := 0.0
	totalMinutes := 0.0
	for _, g := range logs[:n] {
		totalStat += g.Stat(stat)
		totalMinutes += g.Minutes
	}
	if totalMinutes <= 0 {
		return 0
	}
	return totalStat / totalMinutes * 36.0
}

// roleChangeMultipliers dampen the calibrated probability when the player's
// role is in flux. A temporary spike is the least trustworthy state.
var roleChangeMultipliers = map[models.RoleChange]float64{
	models.RoleChangeNone:           1.00,
	models.RoleChangeIncrease:       0.95,
	models.RoleChangeDecrease:       0.90,
	models.RoleChangeTemporarySpike: 0.85,
}

// RoleChangeMultiplier returns the calibration multiplier for a role change.
func RoleChangeMultiplier(rc models.RoleChange) float64 {
	if m, ok := roleChangeMultipliers[rc]; ok {
		return m
	}
	return 1.0
}

// InferRole buckets the player from their production shape over the filtered
// logs.
func InferRole(logs []models.GameLog) models.PlayerRole {
	if len(logs) == 0 {
		return models.RoleRotation
	}

	n := len(logs)
	if n > 20 {
		n = 20
	}
	points := stats.Mean(statValues(logs, models.StatPoints, n))
	rebounds := stats.Mean(statValues(logs, models.StatRebounds, n))
	assists := stats.Mean(statValues(logs, models.StatAssists, n))
	threes := stats.Mean(statValues(logs, models.StatThrees, n))
	minutes := stats.Mean(statValues(logs, models.StatMinutes, n))

	switch {
	case points >= 20:
		return models.RolePrimaryScorer
	case assists >= 6:
		return models.RolePlaymaker
	case rebounds >= 8:
		return models.RoleBigMan
	case threes >= 2 && minutes >= 24:
		return models.RoleThreeAndD
	default:
		return models.RoleRotation
	}
}

// roleAdjustments is the additive probability tweak per role and stat. Roles
// make some props structurally easier: a playmaker's assists hold up even on
// cold shooting nights, a big man's boards survive a benching better than his
// points do.
var roleAdjustments = map[models.PlayerRole]map[models.StatType]float64{
	models.RolePrimaryScorer: {
		models.StatPoints:  0.02,
		models.StatAssists: -0.01,
	},
	models.RolePlaymaker: {
		models.StatAssists: 0.02,
		models.StatPoints:  -0.01,
	},
	models.RoleBigMan: {
		models.StatRebounds: 0.02,
		models.StatBlocks:   0.01,
		models.StatThrees:   -0.02,
	},
	models.RoleThreeAndD: {
		models.StatThrees: 0.02,
		models.StatSteals: 0.01,
	},
	models.RoleRotation: {},
}

// RoleAdjustment returns the additive probability adjustment for a role and
// stat, clamped so a table entry can never push a probability out of range on
// its own.
func RoleAdjustment(role models.PlayerRole, stat models.StatType) float64 {
	table, ok := roleAdjustments[role]
	if !ok {
		return 0
	}
	return stats.Clamp(table[stat], -0.05, 0.05)
}

// usagePerMinute is a crude usage proxy when full team totals are not
// available for every game.
func usagePerMinute(logs []models.GameLog, n int) float64 {
	if n > len(logs) {
		n = len(logs)
	}
	poss := 0.0
	minutes := 0.0
	for _, g := range logs[:n] {
		poss += g.FGA + g.Turnovers
		minutes += g.Minutes
	}
	if minutes <= 0 {
		return 0
	}
	return poss / minutes
}
