// Package performance computes realized betting performance from settled
// recommendations and publishes the headline numbers as gauges.
package performance

import (
	"math"
	"sort"

	"github.com/expert-sys/positive-edge/internal/metrics"
	"github.com/expert-sys/positive-edge/internal/models"
	"github.com/expert-sys/positive-edge/internal/stats"
)

// profitFactorCap stands in for infinity when a sample has no losses.
const profitFactorCap = 999.0

// Report summarizes realized performance over a set of settled bets.
type Report struct {
	TotalBets    int     `json:"total_bets"`
	WinningBets  int     `json:"winning_bets"`
	LosingBets   int     `json:"losing_bets"`
	HitRate      float64 `json:"hit_rate"`
	NetProfit    float64 `json:"net_profit"`
	TotalStaked  float64 `json:"total_staked"`
	ROI          float64 `json:"roi"`
	ProfitFactor float64 `json:"profit_factor"`
	Expectancy   float64 `json:"expectancy"`
	AverageWin   float64 `json:"average_win"`
	AverageLoss  float64 `json:"average_loss"`
	LargestWin   float64 `json:"largest_win"`
	LargestLoss  float64 `json:"largest_loss"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`

	ByMarket map[models.MarketType]*Breakdown `json:"by_market"`
	ByTier   map[models.Tier]*Breakdown       `json:"by_tier"`
}

// Breakdown is the per-segment slice of a report.
type Breakdown struct {
	TotalBets   int     `json:"total_bets"`
	WinningBets int     `json:"winning_bets"`
	HitRate     float64 `json:"hit_rate"`
	NetProfit   float64 `json:"net_profit"`
	TotalStaked float64 `json:"total_staked"`
	ROI         float64 `json:"roi"`
}

// Analyze computes a report from settled recommendations. Unsettled records
// are ignored. initialBankroll anchors the equity curve for drawdown.
func Analyze(recs []*models.Recommendation, initialBankroll float64) *Report {
	report := &Report{
		ByMarket: make(map[models.MarketType]*Breakdown),
		ByTier:   make(map[models.Tier]*Breakdown),
	}

	settled := make([]*models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.IsSettled() && rec.ProfitLoss != nil {
			settled = append(settled, rec)
		}
	}
	if len(settled) == 0 {
		return report
	}

	sort.Slice(settled, func(i, j int) bool {
		return settled[i].SettledAt.Before(*settled[j].SettledAt)
	})

	grossProfit := 0.0
	grossLoss := 0.0
	returns := make([]float64, 0, len(settled))
	equity := initialBankroll
	peak := initialBankroll

	for _, rec := range settled {
		pl := *rec.ProfitLoss
		report.TotalBets++
		report.NetProfit += pl
		report.TotalStaked += rec.Stake

		if pl > 0 {
			report.WinningBets++
			grossProfit += pl
			if pl > report.LargestWin {
				report.LargestWin = pl
			}
		} else if pl < 0 {
			report.LosingBets++
			grossLoss += -pl
			if pl < report.LargestLoss {
				report.LargestLoss = pl
			}
		}

		if equity > 0 {
			returns = append(returns, pl/equity)
		}
		equity += pl
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > report.MaxDrawdown {
				report.MaxDrawdown = dd
			}
		}

		recordSegment(report.ByMarket, rec.MarketType, rec)
		recordSegment(report.ByTier, rec.Tier, rec)
	}

	report.HitRate = float64(report.WinningBets) / float64(report.TotalBets)
	report.Expectancy = report.NetProfit / float64(report.TotalBets)
	if report.TotalStaked > 0 {
		report.ROI = report.NetProfit / report.TotalStaked
	}
	if report.WinningBets > 0 {
		report.AverageWin = grossProfit / float64(report.WinningBets)
	}
	if report.LosingBets > 0 {
		report.AverageLoss = -grossLoss / float64(report.LosingBets)
	}

	report.ProfitFactor = profitFactor(grossProfit, grossLoss)
	report.SharpeRatio = sharpe(returns)
	report.SortinoRatio = sortino(returns)

	finalizeSegments(report.ByMarket)
	finalizeSegments(report.ByTier)

	return report
}

// Publish pushes the per-market and aggregate numbers to the gauges.
func (r *Report) Publish() {
	for marketType, b := range r.ByMarket {
		metrics.UpdateMarketPerformance(string(marketType), b.HitRate, b.ROI)
	}
	metrics.UpdateDrawdownAndProfitFactor(r.MaxDrawdown, r.ProfitFactor)
}

func recordSegment[K comparable](segments map[K]*Breakdown, key K, rec *models.Recommendation) {
	b, ok := segments[key]
	if !ok {
		b = &Breakdown{}
		segments[key] = b
	}

	b.TotalBets++
	b.NetProfit += *rec.ProfitLoss
	b.TotalStaked += rec.Stake
	if *rec.ProfitLoss > 0 {
		b.WinningBets++
	}
}

func finalizeSegments[K comparable](segments map[K]*Breakdown) {
	for _, b := range segments {
		if b.TotalBets > 0 {
			b.HitRate = float64(b.WinningBets) / float64(b.TotalBets)
		}
		if b.TotalStaked > 0 {
			b.ROI = b.NetProfit / b.TotalStaked
		}
	}
}

func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return profitFactorCap
		}
		return 0
	}
	return grossProfit / grossLoss
}

// sharpe annualizes per-bet returns against an NBA-season cadence rather
// than trading days. The constant only scales the ratio; comparisons
// between strategies stay valid either way.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	sd := stats.StdDev(returns)
	if sd == 0 {
		return 0
	}
	return stats.Mean(returns) / sd * math.Sqrt(float64(len(returns)))
}

func sortino(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	downside := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	sd := stats.StdDev(downside)
	if sd == 0 {
		return 0
	}
	return stats.Mean(returns) / sd * math.Sqrt(float64(len(returns)))
}
