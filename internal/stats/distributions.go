package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Minutes are modelled on a truncated normal support of [0, 48].
const (
	MinutesLowerBound = 0.0
	MinutesUpperBound = 48.0
)

// Means at or above this threshold are near enough to symmetric that the
// normal approximation beats a discrete count model.
const normalApproxMean = 15.0

// NormalCDF returns P(Z <= z) for the standard normal distribution.
func NormalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// PoissonTailProb returns P(X >= line) for X ~ Poisson(lambda). Prop lines
// sit at half-integers, so the relevant count threshold is floor(line) + 1.
func PoissonTailProb(lambda, line float64) float64 {
	if lambda <= 0 {
		return 0
	}
	k := math.Floor(line) + 1
	if k <= 0 {
		return 1
	}
	dist := distuv.Poisson{Lambda: lambda}
	return 1 - dist.CDF(k-1)
}

// NormalTailProb returns P(X >= line) for X ~ N(mean, variance).
func NormalTailProb(mean, variance, line float64) float64 {
	if variance <= 0 {
		if mean >= line {
			return 1
		}
		return 0
	}
	dist := distuv.Normal{Mu: mean, Sigma: math.Sqrt(variance)}
	return 1 - dist.CDF(line)
}

// CountTailProb returns P(X >= line) for an overdispersion-aware count model.
// Large means use the normal approximation of the negative binomial; small
// means fall back to Poisson.
func CountTailProb(mean, variance, line float64) float64 {
	if mean >= normalApproxMean {
		if variance < mean {
			variance = mean
		}
		return NormalTailProb(mean, variance, line)
	}
	return PoissonTailProb(mean, line)
}

// ZeroInflatedPoissonTailProb returns P(X >= line) under a zero-inflated
// Poisson approximation. The extra mass at zero is estimated from the
// overdispersion of the sample; rebounds and assists both carry real
// zero-game risk that a plain Poisson underweights.
func ZeroInflatedPoissonTailProb(mean, variance, line float64) float64 {
	if mean <= 0 {
		return 0
	}
	pZero := 0.0
	if variance > mean {
		pZero = (variance - mean) / (variance + mean*mean)
		pZero = Clamp(pZero, 0, 0.3)
	}
	lambda := mean / (1 - pZero)
	if line < 1 {
		// Over 0.5 means any non-zero outcome.
		base := distuv.Poisson{Lambda: lambda}
		return (1 - pZero) * (1 - base.Prob(0))
	}
	return (1 - pZero) * PoissonTailProb(lambda, line)
}

// TruncatedNormalTailProb returns P(X >= line) for a normal distribution
// truncated to [lo, hi].
func TruncatedNormalTailProb(mean, stddev, line, lo, hi float64) float64 {
	if stddev <= 0 {
		if mean >= line {
			return 1
		}
		return 0
	}
	if line <= lo {
		return 1
	}
	if line >= hi {
		return 0
	}
	dist := distuv.Normal{Mu: mean, Sigma: stddev}
	total := dist.CDF(hi) - dist.CDF(lo)
	if total <= 0 {
		return 0
	}
	return (dist.CDF(hi) - dist.CDF(line)) / total
}
