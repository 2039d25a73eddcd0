package situation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/logger"
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

func outcomes(hits, misses int) []bool {
	out := make([]bool, 0, hits+misses)
	for i := 0; i < hits; i++ {
		out = append(out, true)
	}
	for i := 0; i < misses; i++ {
		out = append(out, false)
	}
	return out
}

func TestAnalyze_ThinSampleReturnsNil(t *testing.T) {
	a := NewAnalyzer(logger.NewSilentLogger())

	analysis := a.Analyze(Input{
		HistoricalOutcomes: outcomes(3, 1),
		Insight:            "has cleared 20.5 points in 3 of his last 4",
		Odds:               1.85,
	})
	assert.Nil(t, analysis)
}

func TestAnalyze_PerfectRecordNeverCertainty(t *testing.T) {
	a := NewAnalyzer(logger.NewSilentLogger())

	// 9-of-9 at short odds must never read as a lock.
	analysis := a.Analyze(Input{
		HistoricalOutcomes: outcomes(9, 0),
		Insight:            "has cleared 15.5 points in each of his last 9",
		Odds:               1.21,
	})
	require.NotNil(t, analysis)

	assert.Less(t, analysis.FinalProbability, 1.0)
	assert.Less(t, analysis.HistoricalProbability, 1.0)
	assert.InDelta(t, 9.5/10.0, analysis.HistoricalProbability, 1e-9)

	// The sample caps the claimable edge over the implied probability.
	implied := stats.ImpliedProbability(1.21)
	assert.LessOrEqual(t, analysis.FinalProbability, implied+0.025+1e-9)
	assert.LessOrEqual(t, analysis.Edge, 0.025+1e-9)
}

func TestAnalyze_EVAndValueAgree(t *testing.T) {
	a := NewAnalyzer(logger.NewSilentLogger())

	analysis := a.Analyze(Input{
		HistoricalOutcomes: outcomes(14, 6),
		Insight:            "has cleared 22.5 points in 14 of his last 20",
		Odds:               1.95,
	})
	require.NotNil(t, analysis)

	wantEV := stats.EVPer100(analysis.FinalProbability, 1.95)
	assert.InDelta(t, wantEV, analysis.EVPer100, 1e-9)
	assert.Equal(t, analysis.EVPer100 > 0, analysis.HasValue)
	assert.Equal(t, 20, analysis.SampleSize)
}

func TestAnalyze_BackToBackLowersProbability(t *testing.T) {
	a := NewAnalyzer(logger.NewSilentLogger())

	base := Input{
		HistoricalOutcomes: outcomes(14, 6),
		Insight:            "has cleared 22.5 points in 14 of his last 20",
		Odds:               1.95,
	}

	rested := a.Analyze(base)
	require.NotNil(t, rested)

	tired := base
	tired.Factors = models.ContextFactors{BackToBack: true}
	fatigued := a.Analyze(tired)
	require.NotNil(t, fatigued)

	assert.Less(t, fatigued.AdjustedProbability, rested.AdjustedProbability)
	assert.NotEmpty(t, fatigued.Warnings)
}

func TestAnalyze_NarrativeSplitCarriesNoWeight(t *testing.T) {
	a := NewAnalyzer(logger.NewSilentLogger())

	analysis := a.Analyze(Input{
		HistoricalOutcomes: outcomes(12, 8),
		Insight:            "averages 30 points in games where he starts the second quarter",
		Odds:               1.90,
		Factors:            models.ContextFactors{PaceDiff: 8.0, HomeAdvantage: true},
	})
	require.NotNil(t, analysis)

	assert.Equal(t, models.TrendNarrativeSplit, analysis.TrendClass)
	assert.Equal(t, 0.0, analysis.TrendWeight)

	// With zero trend weight the adjusted probability collapses back to the
	// historical rate, discarding the situational bump.
	assert.InDelta(t, analysis.HistoricalProbability, analysis.AdjustedProbability, 1e-9)
}

func TestAnalyze_ConfidenceAndRisk(t *testing.T) {
	a := NewAnalyzer(logger.NewSilentLogger())

	strong := a.Analyze(Input{
		HistoricalOutcomes: outcomes(16, 6),
		Insight:            "has cleared 24.5 points in 16 of his last 22",
		Odds:               2.10,
	})
	require.NotNil(t, strong)
	assert.Equal(t, models.ConfidenceHigh, strong.Confidence)
	assert.Equal(t, models.RiskLow, strong.Risk)

	thin := a.Analyze(Input{
		HistoricalOutcomes: outcomes(4, 2),
		Insight:            "has cleared 24.5 points in 4 of his last 6",
		Odds:               2.10,
	})
	require.NotNil(t, thin)
	assert.Equal(t, models.ConfidenceLow, thin.Confidence)
	assert.Equal(t, models.RiskHigh, thin.Risk)
}

func TestContextAdjustment_Bounded(t *testing.T) {
	extreme := models.ContextFactors{
		RestDays:      5,
		InjuryImpact:  3.0,
		PaceDiff:      50,
		ClutchDiff:    2.0,
		DefenseDiff:   40,
		HomeAdvantage: true,
	}

	adj, reasons, warnings := contextAdjustment(extreme)
	assert.LessOrEqual(t, adj, MaxContextAdjustment)
	assert.NotEmpty(t, reasons)
	assert.Empty(t, warnings)

	crushing := models.ContextFactors{
		BackToBack:   true,
		InjuryImpact: -3.0,
		PaceDiff:     -50,
		DefenseDiff:  -40,
	}
	adj, _, warnings = contextAdjustment(crushing)
	assert.GreaterOrEqual(t, adj, -MaxContextAdjustment)
	assert.Len(t, warnings, 2)
}
