package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordQuoteDropped(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(QuotesDroppedTotal.WithLabelValues("stale"))

	RecordQuoteDropped("stale")
	RecordQuoteDropped("stale")

	assert.Equal(t, before+2, testutil.ToFloat64(QuotesDroppedTotal.WithLabelValues("stale")))
}

func TestRecordScoringOutcome(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(ScoringOutcomesTotal.WithLabelValues("spread", "NO_EDGE"))

	RecordScoringOutcome("spread", "NO_EDGE")

	assert.Equal(t, before+1, testutil.ToFloat64(ScoringOutcomesTotal.WithLabelValues("spread", "NO_EDGE")))
}

func TestLedgerMetrics(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordPickRecorded("total")
		RecordBetGraded("WIN")
		RecordGradingAmbiguous()
		RecordScoreFeedRequest("ok")
		RecordSweepDuration(0.2)
		RecordScoringDuration(0.001)
		RecordConfidence("spread", 0.57)
		RecordSignal("steam", "UNKNOWN")
		RecordSignalCacheHit()
	})

	UpdatePendingBets(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(PendingBets))

	UpdateParlayCandidates(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(ParlayCandidates))
}

func TestHandler(t *testing.T) {
	InitRegistry()
	RecordGradingAmbiguous()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clever_picks_grading_ambiguous_total")
}
