package projection

import (
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// Minutes projection blend: the recent five games dominate, the twenty-game
// history anchors.
const (
	recentMinutesWeight     = 0.7
	historicalMinutesWeight = 0.3
)

// Benching-risk cutoffs on minutes standard deviation.
const (
	minutesStdModerate = 4.0
	minutesStdHigh     = 7.0
)

// Per-stat standard-deviation thresholds below which volatility costs
// nothing. Above the threshold the multiplicative penalty grows linearly.
var volatilityThresholds = map[models.StatType]float64{
	models.StatPoints:   8.0,
	models.StatRebounds: 5.0,
	models.StatAssists:  4.0,
}

const (
	volatilityPenaltySlope = 0.05
	volatilityPenaltyMax   = 0.25
)

// ProjectMinutes builds the minutes projection from the filtered logs (most
// recent first). Returns false when fewer than five games are available.
func ProjectMinutes(logs []models.GameLog) (models.MinutesProjection, bool) {
	if len(logs) < MinValidGames {
		return models.MinutesProjection{}, false
	}

	recent := statValues(logs, models.StatMinutes, 5)
	historical := statValues(logs, models.StatMinutes, 20)

	recentAvg := stats.Mean(recent)
	historicalAvg := stats.Mean(historical)
	stdDev := stats.StdDev(historical)

	mp := models.MinutesProjection{
		RecentAvg:     recentAvg,
		HistoricalAvg: historicalAvg,
		Projected:     recentMinutesWeight*recentAvg + historicalMinutesWeight*historicalAvg,
		StdDev:        stdDev,
	}

	switch {
	case stdDev >= minutesStdHigh:
		mp.BenchingRisk = models.BenchingRiskHigh
	case stdDev >= minutesStdModerate:
		mp.BenchingRisk = models.BenchingRiskModerate
	default:
		mp.BenchingRisk = models.BenchingRiskLow
	}

	return mp, true
}

// VolatilityMultiplier returns the multiplicative probability penalty for a
// stat's own game-to-game volatility: 1.0 below the per-stat threshold,
// shrinking linearly above it, floored at 1 - volatilityPenaltyMax. The
// penalty never decreases as the standard deviation grows.
func VolatilityMultiplier(stat models.StatType, statStdDev float64) float64 {
	threshold, ok := volatilityThresholds[stat]
	if !ok {
		return 1.0
	}
	if statStdDev <= threshold {
		return 1.0
	}
	penalty := volatilityPenaltySlope * (statStdDev - threshold)
	if penalty > volatilityPenaltyMax {
		penalty = volatilityPenaltyMax
	}
	return 1.0 - penalty
}
