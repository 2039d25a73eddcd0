// Package metrics provides the centralized Prometheus registry for the
// recommendation engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ProjectionsComputedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "positive_edge",
		Name:      "projections_computed_total",
		Help:      "Total number of stat projections computed",
	})
	ProjectionsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "positive_edge",
		Name:      "projections_skipped_total",
		Help:      "Total number of projections skipped for insufficient data",
	})
	RecommendationsGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "positive_edge",
		Name:      "recommendations_generated_total",
		Help:      "Total number of recommendations surfaced",
	})
	RecommendationsSettledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "positive_edge",
		Name:      "recommendations_settled_total",
		Help:      "Total number of recommendations settled",
	})
	ValidationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "positive_edge",
		Name:      "validation_failures_total",
		Help:      "Total number of candidates rejected by validation",
	})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "positive_edge",
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	})
	DataSourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "positive_edge",
		Name:      "datasource_requests_total",
		Help:      "Total number of data source requests by source and result",
	}, []string{"source", "result"})
	OddsUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "positive_edge",
		Name:      "odds_updates_total",
		Help:      "Total number of odds updates received from the stream",
	})
)

// Gauge metrics
var (
	CurrentBankroll = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "positive_edge",
		Name:      "current_bankroll",
		Help:      "Current bankroll in currency units",
	})
	TotalExposure = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "positive_edge",
		Name:      "total_exposure",
		Help:      "Total stake exposure across pending recommendations",
	})
	DailyPnL = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "positive_edge",
		Name:      "daily_pnl",
		Help:      "Daily profit and loss",
	})
	ShortlistSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "positive_edge",
		Name:      "shortlist_size",
		Help:      "Number of recommendations in the latest surfaced shortlist",
	})
	CacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "positive_edge",
		Name:      "cache_hit_ratio",
		Help:      "Session cache hit ratio",
	})
	OddsStreamConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "positive_edge",
		Name:      "odds_stream_connected",
		Help:      "Whether the odds stream is connected (1) or not (0)",
	})
)

// Histogram metrics
var (
	ProjectionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "positive_edge",
		Name:      "projection_duration_seconds",
		Help:      "Duration of a single projection pipeline run in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "positive_edge",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of a full recommendation cycle in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	DataRefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "positive_edge",
		Name:      "data_refresh_duration_seconds",
		Help:      "Duration of scheduled data refresh jobs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(ProjectionsComputedTotal)
		registry.MustRegister(ProjectionsSkippedTotal)
		registry.MustRegister(RecommendationsGeneratedTotal)
		registry.MustRegister(RecommendationsSettledTotal)
		registry.MustRegister(ValidationFailuresTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(DataSourceRequestsTotal)
		registry.MustRegister(OddsUpdatesTotal)

		registry.MustRegister(CurrentBankroll)
		registry.MustRegister(TotalExposure)
		registry.MustRegister(DailyPnL)
		registry.MustRegister(ShortlistSize)
		registry.MustRegister(CacheHitRatio)
		registry.MustRegister(OddsStreamConnected)

		registry.MustRegister(ProjectionDuration)
		registry.MustRegister(CycleDuration)
		registry.MustRegister(DataRefreshDuration)

		registry.MustRegister(TierRecommendationsTotal)
		registry.MustRegister(MarketHitRate)
		registry.MustRegister(MarketROI)
		registry.MustRegister(PerformanceMaxDrawdown)
		registry.MustRegister(PerformanceProfitFactor)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordProjection records a completed projection and its duration.
func RecordProjection(durationSeconds float64) {
	ProjectionsComputedTotal.Inc()
	ProjectionDuration.Observe(durationSeconds)
}

// RecordProjectionSkipped records a projection aborted for insufficient data.
func RecordProjectionSkipped() {
	ProjectionsSkippedTotal.Inc()
}

// RecordRecommendation records a surfaced recommendation.
func RecordRecommendation() {
	RecommendationsGeneratedTotal.Inc()
}

// RecordSettlement records a settlement event.
func RecordSettlement() {
	RecommendationsSettledTotal.Inc()
}

// RecordValidationFailure records a validation rejection.
func RecordValidationFailure() {
	ValidationFailuresTotal.Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// RecordDataSourceRequest records one provider request with its result label.
func RecordDataSourceRequest(source, result string) {
	DataSourceRequestsTotal.WithLabelValues(source, result).Inc()
}

// UpdateBankroll updates the current bankroll gauge.
func UpdateBankroll(amount float64) {
	CurrentBankroll.Set(amount)
}

// UpdateExposure updates the total exposure gauge.
func UpdateExposure(amount float64) {
	TotalExposure.Set(amount)
}

// UpdateDailyPnL updates the daily P&L gauge.
func UpdateDailyPnL(pnl float64) {
	DailyPnL.Set(pnl)
}

// RecordCycle records a completed recommendation cycle.
func RecordCycle(durationSeconds float64, shortlistSize int) {
	CycleDuration.Observe(durationSeconds)
	ShortlistSize.Set(float64(shortlistSize))
}
