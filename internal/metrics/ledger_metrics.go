// Package metrics defines ledger and grading metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PicksRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "picks_recorded_total",
		Help:      "Picks written to the ledger by market",
	}, []string{"market"})

	BetsGradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bets_graded_total",
		Help:      "Bets graded by result",
	}, []string{"result"})

	GradingAmbiguousTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "grading_ambiguous_total",
		Help:      "Grading attempts that left the bet pending",
	})

	ScoreFeedRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "score_feed_requests_total",
		Help:      "Score feed requests by status",
	}, []string{"status"})
)

var (
	PendingBets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_bets",
		Help:      "Bets awaiting grading after the last sweep",
	})

	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "grading_sweep_duration_seconds",
		Help:      "Duration of grading sweeps in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// RecordPickRecorded records a pick entering the ledger.
func RecordPickRecorded(market string) {
	PicksRecordedTotal.WithLabelValues(market).Inc()
}

// RecordBetGraded records a terminal grading result.
func RecordBetGraded(result string) {
	BetsGradedTotal.WithLabelValues(result).Inc()
}

// RecordGradingAmbiguous records a grading attempt that could not resolve.
func RecordGradingAmbiguous() {
	GradingAmbiguousTotal.Inc()
}

// RecordScoreFeedRequest records a score feed call by status.
func RecordScoreFeedRequest(status string) {
	ScoreFeedRequestsTotal.WithLabelValues(status).Inc()
}

// UpdatePendingBets sets the pending bet gauge.
func UpdatePendingBets(count int) {
	PendingBets.Set(float64(count))
}

// RecordSweepDuration records how long a grading sweep took.
func RecordSweepDuration(durationSeconds float64) {
	SweepDuration.Observe(durationSeconds)
}
