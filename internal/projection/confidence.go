package projection

import (
	"math"

	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// Confidence component weights; they sum to 1.
const (
	weightMinutesStability   = 0.30
	weightRoleClarity        = 0.25
	weightHistoricalHitRate  = 0.25
	weightMatchupConsistency = 0.20
)

// Prop-Volatility-Index penalty: half the coefficient of variation, capped at
// a 50% confidence reduction.
const pviPenaltyMax = 0.5

// reboundsVolatilityMult is an extra dampener for rebound props whose
// game-to-game spread exceeds the rebounds threshold; boards swing harder on
// matchup than any other counting stat.
const reboundsVolatilityMult = 0.85

// roleClarityScores feed the role-clarity confidence component.
var roleClarityScores = map[models.RoleChange]float64{
	models.RoleChangeNone:           1.0,
	models.RoleChangeIncrease:       0.5,
	models.RoleChangeDecrease:       0.5,
	models.RoleChangeTemporarySpike: 0.3,
}

// confidenceInput bundles what the confidence score needs.
type confidenceInput struct {
	stat              models.StatType
	statMean          float64
	statStdDev        float64
	minutesStdDev     float64
	roleChange        models.RoleChange
	hitRate           float64 // fraction of sample games over the line
	matchupMultiplier float64
	probability       float64 // calibrated
	sampleSize        int
}

// computeConfidence builds the 0-100 confidence score: a weighted component
// score followed by the independent dampeners. Confidence can never exceed
// probability*100; claiming more confidence than probability is incoherent.
func computeConfidence(in confidenceInput) float64 {
	minutesStability := 1.0 - stats.Clamp(in.minutesStdDev/10.0, 0, 1)

	roleClarity, ok := roleClarityScores[in.roleChange]
	if !ok {
		roleClarity = 0.5
	}

	hitRate := stats.Clamp(in.hitRate, 0, 1)

	matchupConsistency := 1.0 - stats.Clamp(math.Abs(in.matchupMultiplier-1.0)/0.15, 0, 1)*0.5

	confidence := 100.0 * (weightMinutesStability*minutesStability +
		weightRoleClarity*roleClarity +
		weightHistoricalHitRate*hitRate +
		weightMatchupConsistency*matchupConsistency)

	if in.stat == models.StatRebounds {
		if threshold, ok := volatilityThresholds[models.StatRebounds]; ok && in.statStdDev > threshold {
			confidence *= reboundsVolatilityMult
		}
	}

	if in.statMean > 0 {
		cv := in.statStdDev / in.statMean
		penalty := math.Min(pviPenaltyMax, 0.5*cv)
		confidence *= 1.0 - penalty
	}

	confidence *= stats.ReliabilityMultiplier(in.sampleSize)

	if cap := in.probability * 100.0; confidence > cap {
		confidence = cap
	}

	return ApplySampleSizeConfidenceDampener(confidence, in.sampleSize)
}
