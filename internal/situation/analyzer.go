// Package situation converts situational facts and raw outcome histories into
// a single context-adjusted probability per bet, together with a structured
// breakdown a report can surface. The layer sits between raw historical hit
// rates and the expected-value math: regression to the mean first, then
// situational adjustments, then trend-quality blending, then a fixed
// model/historical/market blend.
package situation

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// MinSampleSize is the smallest outcome history the analyzer will work with;
// below it the analysis is nil, which callers must treat as "no
// recommendation", not as a failure.
const MinSampleSize = 5

// MaxContextAdjustment bounds the total situational adjustment regardless of
// how extreme the individual factors are.
const MaxContextAdjustment = 0.08

// Final blend weights. The model-adjusted probability dominates, the raw
// historical rate anchors it, and the bookmaker's implied probability gets a
// deliberate minority voice so a sharp line can still nudge the number.
const (
	BlendModelWeight      = 0.6
	BlendHistoricalWeight = 0.3
	BlendMarketWeight     = 0.1
)

// LeagueMeanProbability is the regression target for binary prop outcomes.
const LeagueMeanProbability = 0.5

// Input carries everything the analyzer needs for one bet.
type Input struct {
	// HistoricalOutcomes is the binary outcome sequence for the bet's
	// condition, most recent first.
	HistoricalOutcomes []bool
	// Insight is the free-text trend backing the bet, used only for
	// quality classification.
	Insight string
	// Odds is the bookmaker's decimal price for the bet.
	Odds float64
	// Factors holds the situational modifiers for the game.
	Factors models.ContextFactors
}

// Analyzer produces context-aware analyses.
type Analyzer struct {
	logger *logrus.Logger
}

// NewAnalyzer creates a context analyzer.
func NewAnalyzer(logger *logrus.Logger) *Analyzer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Analyzer{logger: logger}
}

// Analyze returns the context-aware analysis for one bet, or nil when the
// sample is too thin to say anything.
func (a *Analyzer) Analyze(input Input) *models.ContextAwareAnalysis {
	n := len(input.HistoricalOutcomes)
	if n < MinSampleSize {
		a.logger.WithFields(logrus.Fields{
			"sample_size": n,
			"min_sample":  MinSampleSize,
		}).Debug("Sample too small for context analysis")
		return nil
	}

	successes := 0
	for _, hit := range input.HistoricalOutcomes {
		if hit {
			successes++
		}
	}

	historical := stats.JeffreysProbability(successes, n)
	implied := stats.ImpliedProbability(input.Odds)

	// Regression to the mean comes first; everything downstream works on
	// the regressed number.
	regWeight := regressionWeight(n, historical)
	adjusted := historical*(1-regWeight) + LeagueMeanProbability*regWeight

	contextAdj, reasons, warnings := contextAdjustment(input.Factors)
	adjusted = stats.Clamp(adjusted+contextAdj, 0.01, 0.99)

	trendClass := ClassifyTrend(input.Insight)
	trendWeight := TrendWeight(trendClass)
	adjusted = adjusted*trendWeight + historical*(1-trendWeight)

	final := BlendModelWeight*adjusted + BlendHistoricalWeight*historical + BlendMarketWeight*implied
	final = stats.Clamp(final, 0.01, 0.99)

	// Cap the edge by sample size before any EV or stake math sees it.
	rawEdge := final - implied
	cappedEdge := stats.Clamp(rawEdge, -maxEdge(n), maxEdge(n))
	bettingProb := stats.Clamp(implied+cappedEdge, 0.01, 0.99)

	evPer100 := stats.EVPer100(bettingProb, input.Odds)

	decayed := stats.DecayWeightedProbability(input.HistoricalOutcomes, stats.DefaultDecayFactor)
	rawRate := float64(successes) / float64(n)

	analysis := &models.ContextAwareAnalysis{
		HistoricalProbability: historical,
		AdjustedProbability:   adjusted,
		ImpliedProbability:    implied,
		FinalProbability:      bettingProb,
		Edge:                  cappedEdge,
		EVPer100:              evPer100,
		// Value is an EV question, not an edge-sign question: a
		// displayed negative edge can still price positive against the
		// odds once the blend settles.
		HasValue:    evPer100 > 0,
		SampleSize:  n,
		TrendClass:  trendClass,
		TrendWeight: trendWeight,
		Breakdown: models.ComponentBreakdown{
			EdgeComponent:    cappedEdge,
			SampleComponent:  stats.ReliabilityMultiplier(n),
			RecencyComponent: decayed - rawRate,
		},
		Reasons:  reasons,
		Warnings: warnings,
	}

	analysis.Confidence = confidenceLevel(n, trendWeight, evPer100)
	analysis.Risk = riskLevel(n, len(warnings))

	a.logger.WithFields(logrus.Fields{
		"sample_size":  n,
		"historical":   historical,
		"adjusted":     adjusted,
		"implied":      implied,
		"final":        bettingProb,
		"edge":         cappedEdge,
		"ev_per_100":   evPer100,
		"trend_class":  trendClass,
		"trend_weight": trendWeight,
	}).Debug("Context analysis complete")

	return analysis
}

// regressionWeight returns how hard to pull a raw probability toward the
// league mean. Thin samples and extreme rates both regress harder.
func regressionWeight(n int, p float64) float64 {
	var weight float64
	switch {
	case n >= 30:
		weight = 0.10
	case n >= 15:
		weight = 0.20
	case n >= 10:
		weight = 0.30
	case n >= 5:
		weight = 0.40
	default:
		weight = 0.50
	}
	if p < 0.25 || p > 0.75 {
		weight += 0.15
	}
	return stats.Clamp(weight, 0, 0.65)
}

// maxEdge returns the largest edge a sample of size n is allowed to claim.
func maxEdge(n int) float64 {
	switch {
	case n >= 30:
		return 0.060
	case n >= 20:
		return 0.050
	case n >= 10:
		return 0.040
	default:
		return 0.025
	}
}

// contextAdjustment converts situational factors into a bounded additive
// probability adjustment plus human-readable reasons and warnings.
func contextAdjustment(f models.ContextFactors) (float64, []string, []string) {
	adj := 0.0
	reasons := make([]string, 0, 4)
	warnings := make([]string, 0, 2)

	if f.BackToBack {
		adj -= 0.03
		warnings = append(warnings, "second night of a back-to-back")
	} else if f.RestDays >= 2 {
		rest := 0.01 * float64(f.RestDays-1)
		if rest > 0.02 {
			rest = 0.02
		}
		adj += rest
		reasons = append(reasons, fmt.Sprintf("%d days rest", f.RestDays))
	}

	if f.InjuryImpact != 0 {
		adj += stats.Clamp(f.InjuryImpact*0.03, -0.03, 0.03)
		if f.InjuryImpact < 0 {
			warnings = append(warnings, "negative injury impact on lineup")
		} else {
			reasons = append(reasons, "injury-driven opportunity in lineup")
		}
	}

	if f.PaceDiff != 0 {
		adj += stats.Clamp(f.PaceDiff*0.002, -0.02, 0.02)
		if f.PaceDiff > 0 {
			reasons = append(reasons, "pace-up matchup")
		}
	}

	if f.ClutchDiff != 0 {
		adj += stats.Clamp(f.ClutchDiff*0.05, -0.015, 0.015)
	}

	if f.DefenseDiff != 0 {
		adj += stats.Clamp(f.DefenseDiff*0.002, -0.02, 0.02)
		if f.DefenseDiff > 0 {
			reasons = append(reasons, "soft opposing defense")
		}
	}

	if f.HomeAdvantage {
		adj += 0.01
	}

	return stats.Clamp(adj, -MaxContextAdjustment, MaxContextAdjustment), reasons, warnings
}

func confidenceLevel(n int, trendWeight, evPer100 float64) models.ConfidenceLevel {
	switch {
	case n >= 20 && trendWeight >= 0.6 && evPer100 > 2:
		return models.ConfidenceHigh
	case n >= 10:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func riskLevel(n, warningCount int) models.RiskLevel {
	switch {
	case n < 8 || warningCount >= 2:
		return models.RiskHigh
	case n < 15 || warningCount == 1:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
