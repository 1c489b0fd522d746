// Package metrics provides the centralized Prometheus registry for the picks engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clever_picks"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Scoring pipeline metrics
var (
	QuotesDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_dropped_total",
		Help:      "Quotes discarded during normalization by reason",
	}, []string{"reason"})
	ScoringOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scoring_outcomes_total",
		Help:      "Scored markets by outcome",
	}, []string{"market", "outcome"})
	SignalsFiredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_fired_total",
		Help:      "Market signals by type and state",
	}, []string{"signal", "state"})
	SignalCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signal_cache_hits_total",
		Help:      "Signal bundles served from cache",
	})
	ScoringDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scoring_duration_seconds",
		Help:      "Duration of scoring one game in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	ConfidenceScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "confidence_score",
		Help:      "Confidence of emitted picks",
		Buckets:   []float64{0.4, 0.45, 0.5, 0.52, 0.55, 0.58, 0.6, 0.65, 0.7},
	}, []string{"market"})
	ParlayCandidates = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "parlay_candidates",
		Help:      "Number of parlay candidates returned by the last run",
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(QuotesDroppedTotal)
		registry.MustRegister(ScoringOutcomesTotal)
		registry.MustRegister(SignalsFiredTotal)
		registry.MustRegister(SignalCacheHitsTotal)
		registry.MustRegister(ScoringDuration)
		registry.MustRegister(ConfidenceScore)
		registry.MustRegister(ParlayCandidates)

		registry.MustRegister(PicksRecordedTotal)
		registry.MustRegister(BetsGradedTotal)
		registry.MustRegister(GradingAmbiguousTotal)
		registry.MustRegister(PendingBets)
		registry.MustRegister(SweepDuration)
		registry.MustRegister(ScoreFeedRequestsTotal)
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

// RecordQuoteDropped records a discarded quote.
func RecordQuoteDropped(reason string) {
	QuotesDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordScoringOutcome records the outcome of scoring one market.
func RecordScoringOutcome(market, outcome string) {
	ScoringOutcomesTotal.WithLabelValues(market, outcome).Inc()
}

// RecordSignal records a computed signal state.
func RecordSignal(signal, state string) {
	SignalsFiredTotal.WithLabelValues(signal, state).Inc()
}

// RecordSignalCacheHit records a signal bundle served from cache.
func RecordSignalCacheHit() {
	SignalCacheHitsTotal.Inc()
}

// RecordScoringDuration records how long one game took to score.
func RecordScoringDuration(durationSeconds float64) {
	ScoringDuration.Observe(durationSeconds)
}

// RecordConfidence records the confidence of an emitted pick.
func RecordConfidence(market string, confidence float64) {
	ConfidenceScore.WithLabelValues(market).Observe(confidence)
}

// UpdateParlayCandidates sets the size of the last parlay run.
func UpdateParlayCandidates(count int) {
	ParlayCandidates.Set(float64(count))
}
