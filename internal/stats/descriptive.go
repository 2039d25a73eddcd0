// Package stats provides the statistical primitives behind the projection
// and context-adjustment layers: descriptive aggregates, Bayesian shrinkage,
// confidence intervals and probability-over-line distribution helpers.
package stats

import "math"

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the population variance of values.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return variance / float64(len(values))
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// DefaultDecayFactor is the per-game weight decay used for recency-weighted
// aggregates.
const DefaultDecayFactor = 0.95

// DecayWeightedMean returns the exponential-decay weighted mean of values,
// where values[0] is the most recent observation and the observation i
// positions back carries weight decay^i.
func DecayWeightedMean(values []float64, decay float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if decay <= 0 || decay > 1 {
		decay = DefaultDecayFactor
	}
	weightedSum := 0.0
	weightSum := 0.0
	weight := 1.0
	for _, v := range values {
		weightedSum += v * weight
		weightSum += weight
		weight *= decay
	}
	if weightSum == 0 {
		return 0
	}
	return weightedSum / weightSum
}

// DecayWeightedProbability returns the decay-weighted success rate of a
// binary outcome sequence, most recent first.
func DecayWeightedProbability(outcomes []bool, decay float64) float64 {
	values := make([]float64, len(outcomes))
	for i, hit := range outcomes {
		if hit {
			values[i] = 1.0
		}
	}
	return DecayWeightedMean(values, decay)
}
