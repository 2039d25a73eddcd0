package projection

import (
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// MinutesFloor is the minimum minutes a game must have to count toward a
// projection; garbage-time cameos poison every rate stat downstream.
const MinutesFloor = 10.0

// Rolling windows, shortest to longest. The longest window with enough games
// wins.
var rollingWindows = []int{5, 10, 20}

// FilterByMinutes returns the games at or above the minutes floor, preserving
// order (most recent first).
func FilterByMinutes(logs []models.GameLog, floor float64) []models.GameLog {
	filtered := make([]models.GameLog, 0, len(logs))
	for _, g := range logs {
		if g.Minutes >= floor {
			filtered = append(filtered, g)
		}
	}
	return filtered
}

// BuildRollingStats computes the windowed aggregate for one stat over the
// given logs (most recent first). Returns nil when fewer than window games
// are available.
func BuildRollingStats(logs []models.GameLog, stat models.StatType, window int) *models.RollingStats {
	if len(logs) < window {
		return nil
	}
	values := make([]float64, 0, window)
	for _, g := range logs[:window] {
		values = append(values, g.Stat(stat))
	}
	return &models.RollingStats{
		Stat:         stat,
		Window:       window,
		SampleSize:   len(values),
		Mean:         stats.Mean(values),
		Variance:     stats.Variance(values),
		StdDev:       stats.StdDev(values),
		WeightedMean: stats.DecayWeightedMean(values, stats.DefaultDecayFactor),
	}
}

// BestRollingStats returns the longest available rolling window for a stat,
// or nil when not even the shortest window is filled.
func BestRollingStats(logs []models.GameLog, stat models.StatType) *models.RollingStats {
	var best *models.RollingStats
	for _, window := range rollingWindows {
		if rs := BuildRollingStats(logs, stat, window); rs != nil {
			best = rs
		}
	}
	return best
}

// statValues extracts the stat column from the first n logs.
func statValues(logs []models.GameLog, stat models.StatType, n int) []float64 {
	if n > len(logs) {
		n = len(logs)
	}
	values := make([]float64, 0, n)
	for _, g := range logs[:n] {
		values = append(values, g.Stat(stat))
	}
	return values
}
