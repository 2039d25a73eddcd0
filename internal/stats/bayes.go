package stats

import "math"

// JeffreysProbability returns the Jeffreys-prior estimate of a success
// probability: (successes + 0.5) / (n + 1). The estimate is strictly inside
// (0, 1) even for 0/n and n/n samples, which is what keeps a perfect small
// sample from ever reading as a certainty.
func JeffreysProbability(successes, n int) float64 {
	if n < 0 {
		return 0.5
	}
	return (float64(successes) + 0.5) / (float64(n) + 1.0)
}

// DefaultWilsonZ is the z-score for a 95% Wilson interval.
const DefaultWilsonZ = 1.96

// WilsonInterval returns the Wilson score interval for a binomial proportion
// at the given z, clamped to [0, 1]. For n == 0 the interval is the full
// [0, 1] range.
func WilsonInterval(successes, n int, z float64) (lower, upper float64) {
	if n <= 0 {
		return 0, 1
	}
	if z <= 0 {
		z = DefaultWilsonZ
	}
	p := float64(successes) / float64(n)
	nf := float64(n)
	z2 := z * z

	denom := 1 + z2/nf
	center := p + z2/(2*nf)
	spread := z * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf))

	lower = (center - spread) / denom
	upper = (center + spread) / denom
	return Clamp(lower, 0, 1), Clamp(upper, 0, 1)
}

// ReliabilityMultiplier returns a sample-size dampener in (0, 1]. It is
// applied to confidence scores only, never to probabilities: shrinking a
// probability for a thin sample silently buries legitimate high-probability
// bets, while shrinking confidence just ranks them lower.
func ReliabilityMultiplier(n int) float64 {
	switch {
	case n >= 30:
		return 1.0
	case n >= 20:
		return 0.9
	case n >= 10:
		return 0.75
	case n >= 5:
		return 0.6
	default:
		return 0.4
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
