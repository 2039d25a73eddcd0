package projection

import (
	"github.com/expert-sys/positive-edge/internal/stats"
)

// Calibrated probabilities are clamped to [0.01, 0.99]; neither certainty
// ever survives calibration.
const (
	calibratedMin = 0.01
	calibratedMax = 0.99
)

// Calibrate converts a raw over-line probability into the calibrated
// probability. The stages apply in a fixed order: volatility multiplier,
// role-change multiplier, archetype cap, clamp. The order changes the
// result, so it must not be rearranged.
func Calibrate(raw, volatilityMult, roleMult, archetypeCap float64) float64 {
	p := raw * volatilityMult
	p = p * roleMult
	if p > archetypeCap {
		p = archetypeCap
	}
	return stats.Clamp(p, calibratedMin, calibratedMax)
}

// Sample-size confidence dampener steps.
const (
	sampleDampenerFullAt  = 13
	sampleDampenerSmallAt = 8
	sampleDampenerSmall   = 4.0
	sampleDampenerTiny    = 8.0
)

// ApplySampleSizeConfidenceDampener subtracts a flat penalty from a
// confidence score for thin samples: nothing at 13+ games, 4 points for 8-12
// games, 8 points below 8. The result is clamped to [0, 100].
func ApplySampleSizeConfidenceDampener(confidence float64, sampleSize int) float64 {
	switch {
	case sampleSize >= sampleDampenerFullAt:
		// unchanged
	case sampleSize >= sampleDampenerSmallAt:
		confidence -= sampleDampenerSmall
	default:
		confidence -= sampleDampenerTiny
	}
	return stats.Clamp(confidence, 0, 100)
}
