// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-picks/internal/models"
)

// AuditLogger provides dedicated audit trail logging for the bet ledger.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogPickRecorded logs a pick entering the ledger.
func (al *AuditLogger) LogPickRecorded(bet *models.TrackedBet) {
	al.WithFields(logrus.Fields{
		"bet_id":         bet.ID.String(),
		"game_id":        bet.GameID,
		"market":         bet.Market,
		"pick_side":      bet.PickSide,
		"line":           bet.LineAtPick,
		"price":          bet.PriceAtPick,
		"book_id":        bet.BookID,
		"confidence":     bet.ConfidenceAtPick,
		"edge_pct":       bet.EdgePctAtPick,
		"stake_fraction": bet.StakeFraction,
		"timestamp":      bet.PlacedAt.Unix(),
	}).Info("Pick recorded")
}

// LogBetGraded logs a bet transitioning to a terminal result.
func (al *AuditLogger) LogBetGraded(bet *models.TrackedBet) {
	fields := logrus.Fields{
		"bet_id":    bet.ID.String(),
		"game_id":   bet.GameID,
		"market":    bet.Market,
		"pick_side": bet.PickSide,
		"old_state": models.BetResultPending,
		"new_state": bet.Result,
	}
	if bet.CLV != nil {
		fields["clv"] = *bet.CLV
	}
	if bet.ActualScore.IsComplete() {
		fields["home_score"] = *bet.ActualScore.Home
		fields["away_score"] = *bet.ActualScore.Away
	}
	al.WithFields(fields).Info("Bet graded")
}

// LogGradingAmbiguous logs a grading attempt that left the bet pending.
func (al *AuditLogger) LogGradingAmbiguous(betID, gameID string, status models.GameStatus, reason string) {
	al.WithFields(logrus.Fields{
		"bet_id":      betID,
		"game_id":     gameID,
		"game_status": status,
		"reason":      reason,
	}).Warn("Grading ambiguous, bet left pending")
}

// LogSweepCompleted logs the result of a grading sweep.
func (al *AuditLogger) LogSweepCompleted(summary models.SweepSummary, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"checked":     summary.Checked,
		"graded":      summary.Graded,
		"ambiguous":   summary.Ambiguous,
		"failed":      summary.Failed,
		"duration_ms": summary.Duration.Milliseconds(),
		"timestamp":   timestamp.Unix(),
	}).Info("Grading sweep completed")
}
