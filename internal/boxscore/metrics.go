// Package boxscore provides pure metric calculators over normalized
// box-score records. Every calculator returns its value together with an ok
// flag; ok is false when the inputs cannot support the calculation (zero
// minutes, zero attempts) and the value is then 0. Nothing in this package
// logs, allocates shared state, or returns an error.
package boxscore

import (
	"github.com/expert-sys/positive-edge/internal/models"
)

// Free-throw possession weights. The team-side weight follows the standard
// 0.44 trips-to-the-line estimate; true shooting uses the coarser 0.5 weight.
const (
	teamFTAWeight = 0.44
	tsFTAWeight   = 0.5
)

// UsageRate returns the percentage of team possessions a player used while on
// the floor. The player's possession count is FGA + TOV; the team denominator
// weights free-throw attempts by 0.44.
func UsageRate(g *models.GameLog, team models.TeamTotals) (float64, bool) {
	if g == nil || g.Minutes <= 0 {
		return 0, false
	}
	teamPoss := team.FGA + teamFTAWeight*team.FTA + team.Turnovers
	if teamPoss <= 0 || team.Minutes <= 0 {
		return 0, false
	}
	playerPoss := g.FGA + g.Turnovers
	return 100.0 * (playerPoss * (team.Minutes / 5.0)) / (g.Minutes * teamPoss), true
}

// TrueShooting returns true shooting percentage for the given points and
// shot attempts: PTS / (2 * (FGA + 0.5*FTA)) * 100.
func TrueShooting(points, fga, fta float64) (float64, bool) {
	attempts := fga + tsFTAWeight*fta
	if attempts <= 0 {
		return 0, false
	}
	return points / (2.0 * attempts) * 100.0, true
}

// EffectiveFG returns effective field goal percentage, crediting threes with
// half an extra make: (FGM + 0.5*TPM) / FGA * 100.
func EffectiveFG(fgm, tpm, fga float64) (float64, bool) {
	if fga <= 0 {
		return 0, false
	}
	return (fgm + 0.5*tpm) / fga * 100.0, true
}

// AssistRate returns the percentage of teammate field goals a player assisted
// while on the floor.
func AssistRate(g *models.GameLog, team models.TeamTotals) (float64, bool) {
	if g == nil || g.Minutes <= 0 || team.Minutes <= 0 {
		return 0, false
	}
	teammateFGM := (g.Minutes/(team.Minutes/5.0))*team.FGM - g.FGM
	if teammateFGM <= 0 {
		return 0, false
	}
	return 100.0 * g.Assists / teammateFGM, true
}

// GameScore returns Hollinger's game score, a single-number summary of a
// box-score line.
func GameScore(g *models.GameLog) (float64, bool) {
	if g == nil {
		return 0, false
	}
	score := g.Points +
		0.4*g.FGM -
		0.7*g.FGA -
		0.4*(g.FTA-g.FTM) +
		0.7*g.OffReb +
		0.3*g.DefReb +
		g.Steals +
		0.7*g.Assists +
		0.7*g.Blocks -
		0.4*g.Fouls -
		g.Turnovers
	return score, true
}

// ReboundRate returns the percentage of available rebounds a player grabbed
// while on the floor. The available pool is the player's team rebounds plus
// the opponent's.
func ReboundRate(g *models.GameLog, team, opponent models.TeamTotals) (float64, bool) {
	if g == nil || g.Minutes <= 0 || team.Minutes <= 0 {
		return 0, false
	}
	available := team.Rebounds + opponent.Rebounds
	if available <= 0 {
		return 0, false
	}
	return 100.0 * (g.Rebounds * (team.Minutes / 5.0)) / (g.Minutes * available), true
}

// OffensiveReboundRate is ReboundRate restricted to the offensive glass; the
// available pool is team offensive boards plus opponent defensive boards.
func OffensiveReboundRate(g *models.GameLog, team, opponent models.TeamTotals) (float64, bool) {
	if g == nil || g.Minutes <= 0 || team.Minutes <= 0 {
		return 0, false
	}
	available := team.OffReb + opponent.DefReb
	if available <= 0 {
		return 0, false
	}
	return 100.0 * (g.OffReb * (team.Minutes / 5.0)) / (g.Minutes * available), true
}

// DefensiveReboundRate is ReboundRate restricted to the defensive glass.
func DefensiveReboundRate(g *models.GameLog, team, opponent models.TeamTotals) (float64, bool) {
	if g == nil || g.Minutes <= 0 || team.Minutes <= 0 {
		return 0, false
	}
	available := team.DefReb + opponent.OffReb
	if available <= 0 {
		return 0, false
	}
	return 100.0 * (g.DefReb * (team.Minutes / 5.0)) / (g.Minutes * available), true
}
