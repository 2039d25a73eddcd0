// Package projection turns a player's game-log history into a calibrated
// probability that a stat clears a prop line. The pipeline is a fixed
// sequence: minutes filter, rolling windows, minutes projection, matchup
// multiplier, role-change detection, distribution selection, role adjustment,
// archetype cap, calibration, confidence. Any stage that lacks data aborts
// the whole projection; partial projections are never surfaced.
package projection

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// MinValidGames is the smallest filtered sample a projection will run on.
const MinValidGames = 5

// Input carries everything one projection run needs.
type Input struct {
	PlayerID   string
	PlayerName string
	// Logs is the player's season game log, most recent first.
	Logs []models.GameLog
	Stat models.StatType
	Line float64
	GameDate time.Time

	// Team and Opponent season stats drive the matchup multiplier; either
	// may be nil, in which case the matchup is neutral.
	Team     *models.TeamStats
	Opponent *models.TeamStats

	// SeasonPer36 is the player's season-long per-36 baseline for the
	// stat, used by the usage-spike check. Zero disables the check.
	SeasonPer36 float64
}

// Projector runs the projection pipeline.
type Projector struct {
	logger       *logrus.Logger
	minutesFloor float64
}

// NewProjector creates a projector with the default minutes floor.
func NewProjector(logger *logrus.Logger) *Projector {
	if logger == nil {
		logger = logrus.New()
	}
	return &Projector{logger: logger, minutesFloor: MinutesFloor}
}

// Project returns the calibrated stat projection, or nil when any stage has
// insufficient data. A nil projection means "no recommendation", never an
// error the caller should handle.
func (p *Projector) Project(in Input) *models.StatProjection {
	filtered := FilterByMinutes(in.Logs, p.minutesFloor)
	if len(filtered) < MinValidGames {
		p.logger.WithFields(logrus.Fields{
			"player_id":   in.PlayerID,
			"stat":        in.Stat,
			"valid_games": len(filtered),
		}).Debug("Not enough valid games for projection")
		return nil
	}

	rolling := BestRollingStats(filtered, in.Stat)
	if rolling == nil {
		return nil
	}

	minutes, ok := ProjectMinutes(filtered)
	if !ok {
		return nil
	}
	volatilityMult := VolatilityMultiplier(in.Stat, rolling.StdDev)
	minutes.VolatilityPenalty = volatilityMult

	matchupMult := MatchupMultiplier(in.Team, in.Opponent)
	roleChange := DetectRoleChange(filtered, in.Stat, in.SeasonPer36)

	expected, variance := p.expectation(filtered, rolling, minutes, matchupMult)
	rawProb := overLineProbability(in.Stat, expected, variance, in.Line)

	role := InferRole(filtered)
	rawProb = stats.Clamp(rawProb+RoleAdjustment(role, in.Stat), 0, 1)

	archetype := ClassifyArchetype(filtered)
	calibrated := Calibrate(rawProb, volatilityMult, RoleChangeMultiplier(roleChange), ArchetypeCap(archetype))

	confidence := computeConfidence(confidenceInput{
		stat:              in.Stat,
		statMean:          rolling.Mean,
		statStdDev:        rolling.StdDev,
		minutesStdDev:     minutes.StdDev,
		roleChange:        roleChange,
		hitRate:           hitRate(filtered, in.Stat, in.Line),
		matchupMultiplier: matchupMult,
		probability:       calibrated,
		sampleSize:        len(filtered),
	})

	proj := &models.StatProjection{
		PlayerID:              in.PlayerID,
		PlayerName:            in.PlayerName,
		Stat:                  in.Stat,
		Line:                  in.Line,
		GameDate:              in.GameDate,
		Expected:              expected,
		Variance:              variance,
		RawProbability:        rawProb,
		CalibratedProbability: calibrated,
		Confidence:            confidence,
		Minutes:               minutes,
		RoleChange:            roleChange,
		Role:                  role,
		Archetype:             archetype,
		Distribution:          distributionFor(in.Stat),
		MatchupMultiplier:     matchupMult,
		SampleSize:            len(filtered),
	}

	p.logger.WithFields(logrus.Fields{
		"player_id":   in.PlayerID,
		"stat":        in.Stat,
		"line":        in.Line,
		"expected":    expected,
		"raw_prob":    rawProb,
		"calibrated":  calibrated,
		"confidence":  confidence,
		"role_change": roleChange,
		"archetype":   archetype,
	}).Debug("Projection complete")

	return proj
}

// expectation scales the rolling weighted mean by projected minutes and the
// matchup multiplier.
func (p *Projector) expectation(logs []models.GameLog, rolling *models.RollingStats, minutes models.MinutesProjection, matchupMult float64) (float64, float64) {
	windowMinutes := stats.Mean(statValues(logs, models.StatMinutes, rolling.Window))

	minutesRatio := 1.0
	if windowMinutes > 0 && minutes.Projected > 0 {
		minutesRatio = stats.Clamp(minutes.Projected/windowMinutes, 0.8, 1.2)
	}

	scale := minutesRatio * matchupMult
	expected := rolling.WeightedMean * scale
	variance := rolling.Variance * scale * scale
	return expected, variance
}

// distributionFor selects the distribution family per stat type.
func distributionFor(stat models.StatType) models.DistributionFamily {
	switch stat {
	case models.StatThrees, models.StatSteals, models.StatBlocks:
		return models.DistPoisson
	case models.StatRebounds, models.StatAssists:
		return models.DistZeroInflatedPoisson
	case models.StatMinutes:
		return models.DistTruncatedNormal
	default:
		return models.DistNormal
	}
}

// overLineProbability computes P(stat >= line) under the stat's distribution
// family.
func overLineProbability(stat models.StatType, expected, variance, line float64) float64 {
	switch stat {
	case models.StatThrees, models.StatSteals, models.StatBlocks:
		return stats.PoissonTailProb(expected, line)
	case models.StatRebounds, models.StatAssists:
		return stats.ZeroInflatedPoissonTailProb(expected, variance, line)
	case models.StatMinutes:
		return stats.TruncatedNormalTailProb(expected, sqrtOrZero(variance), line, stats.MinutesLowerBound, stats.MinutesUpperBound)
	default:
		return stats.CountTailProb(expected, variance, line)
	}
}

// hitRate returns the fraction of sampled games in which the stat cleared
// the line.
func hitRate(logs []models.GameLog, stat models.StatType, line float64) float64 {
	if len(logs) == 0 {
		return 0
	}
	n := len(logs)
	if n > 20 {
		n = 20
	}
	hits := 0
	for _, g := range logs[:n] {
		if g.Stat(stat) >= line {
			hits++
		}
	}
	return float64(hits) / float64(n)
}

func sqrtOrZero(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
