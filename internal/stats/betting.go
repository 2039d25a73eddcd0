package stats

// CalculateEV returns the expected value of a bet at the given win
// probability and decimal odds, scaled by stake:
// (probability*odds - 1) * stake.
func CalculateEV(probability, odds, stake float64) float64 {
	return (probability*odds - 1.0) * stake
}

// EVPer100 returns the expected value per 100 units staked.
func EVPer100(probability, odds float64) float64 {
	return CalculateEV(probability, odds, 100.0)
}

// ImpliedProbability converts decimal odds to the market-implied win
// probability. The feed is trusted as-is; no overround correction is applied.
func ImpliedProbability(odds float64) float64 {
	if odds <= 0 {
		return 0
	}
	return 1.0 / odds
}

// KellyFraction returns the full-Kelly fraction of bankroll for a bet at the
// given probability and decimal odds. Negative fractions mean no bet.
func KellyFraction(probability, odds float64) float64 {
	b := odds - 1.0
	if b <= 0 {
		return 0
	}
	return (b*probability - (1 - probability)) / b
}
