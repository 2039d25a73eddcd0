package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Per-market and per-tier metrics, labeled rather than flattened so dashboards
// can slice by market type.
var (
	TierRecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "positive_edge",
		Name:      "tier_recommendations_total",
		Help:      "Total recommendations surfaced by market type and tier",
	}, []string{"market_type", "tier"})

	MarketHitRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "positive_edge",
		Name:      "market_hit_rate",
		Help:      "Rolling hit rate of settled recommendations per market type",
	}, []string{"market_type"})

	MarketROI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "positive_edge",
		Name:      "market_roi",
		Help:      "Rolling ROI of settled recommendations per market type",
	}, []string{"market_type"})

	PerformanceMaxDrawdown = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "positive_edge",
		Name:      "performance_max_drawdown",
		Help:      "Maximum drawdown over the evaluated settlement window",
	})

	PerformanceProfitFactor = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "positive_edge",
		Name:      "performance_profit_factor",
		Help:      "Gross profit over gross loss for the evaluated settlement window",
	})
)

// RecordTierRecommendation records a surfaced recommendation by market and tier.
func RecordTierRecommendation(marketType, tier string) {
	TierRecommendationsTotal.WithLabelValues(marketType, tier).Inc()
}

// UpdateMarketPerformance publishes rolling hit rate and ROI for one market.
func UpdateMarketPerformance(marketType string, hitRate, roi float64) {
	MarketHitRate.WithLabelValues(marketType).Set(hitRate)
	MarketROI.WithLabelValues(marketType).Set(roi)
}

// UpdateDrawdownAndProfitFactor publishes portfolio-level performance gauges.
func UpdateDrawdownAndProfitFactor(maxDrawdown, profitFactor float64) {
	PerformanceMaxDrawdown.Set(maxDrawdown)
	PerformanceProfitFactor.Set(profitFactor)
}
