package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-picks/internal/models"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func testBet() *models.TrackedBet {
	return &models.TrackedBet{
		ID:               uuid.New(),
		GameID:           "nfl_2024_kc_buf",
		Market:           models.MarketSpread,
		PickSide:         models.SideHome,
		LineAtPick:       -3.5,
		PriceAtPick:      -110,
		BookID:           "pinnacle",
		ConfidenceAtPick: 0.58,
		EdgePctAtPick:    3.2,
		StakeFraction:    0.0296,
		Result:           models.BetResultPending,
		PlacedAt:         time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewLoggerTo_InvalidLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLoggerTo(buf, "chatty", "development")

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level")
}

func TestNewLoggerTo_ProductionUsesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLoggerTo(buf, "debug", "production")
	log.Info("hello")

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestAuditLoggerPickRecorded(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)
	bet := testBet()

	auditLogger.LogPickRecorded(bet)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, bet.ID.String(), logEntry["bet_id"])
	assert.Equal(t, "spread", logEntry["market"])
	assert.Equal(t, 0.58, logEntry["confidence"])
}

func TestAuditLoggerBetGraded(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)
	bet := testBet()
	bet.Result = models.BetResultWin
	bet.ActualScore = models.NewFinalScore(27, 23)
	clv := 0.5
	bet.CLV = &clv

	auditLogger.LogBetGraded(bet)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "WIN", logEntry["new_state"])
	assert.Equal(t, "PENDING", logEntry["old_state"])
	assert.Equal(t, 0.5, logEntry["clv"])
	assert.Equal(t, 27.0, logEntry["home_score"])
}

func TestAuditLoggerGradingAmbiguous(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogGradingAmbiguous("bet_123", "game_1", models.GameStatusLive, "game not final")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "live", logEntry["game_status"])
}

func TestAuditLoggerSweepCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogSweepCompleted(models.SweepSummary{Checked: 5, Graded: 3, Ambiguous: 2, Duration: 1500 * time.Millisecond}, time.Now())

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, 3.0, logEntry["graded"])
	assert.Equal(t, 1500.0, logEntry["duration_ms"])
}

func TestPickLoggerMarketScored(t *testing.T) {
	log, buf := setupTestLogger()
	pickLogger := NewPickLogger(log)

	pickLogger.LogMarketScored(&models.ConfidenceResult{
		GameID:     "game_1",
		Market:     models.MarketTotal,
		PickSide:   models.SideOver,
		Confidence: 0.61,
		EdgePct:    4.1,
	})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "scoring", logEntry["component"])
	assert.Equal(t, "over", logEntry["pick_side"])
	assert.Equal(t, 4.1, logEntry["edge_pct"])
}

func TestPickLoggerSignalsAndSkips(t *testing.T) {
	log, buf := setupTestLogger()
	pickLogger := NewPickLogger(log)

	div := -1.0
	pickLogger.LogSignals(&models.SignalBundle{
		GameID:          "game_1",
		Market:          models.MarketSpread,
		SharpDivergence: &div,
		SharpAction:     models.DirectedSignal{State: models.SignalYes, Side: models.SideHome},
		Steam:           models.Unknown(),
	})
	pickLogger.LogMarketSkipped("game_1", models.MarketMoneyline, models.OutcomeNoEdge)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"sharp_action":"YES"`)
	assert.Contains(t, lines[1], `"outcome":"NO_EDGE"`)
}

func BenchmarkAuditLoggerPickRecorded(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	auditLogger := NewAuditLogger(log)
	bet := testBet()

	for i := 0; i < b.N; i++ {
		auditLogger.LogPickRecorded(bet)
	}
}
