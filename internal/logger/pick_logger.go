// Package logger provides scoring-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-picks/internal/models"
)

// PickLogger provides dedicated logging for scoring operations.
type PickLogger struct {
	*logrus.Entry
}

// NewPickLogger creates a new pick logger.
func NewPickLogger(baseLogger *logrus.Logger) *PickLogger {
	return &PickLogger{
		Entry: baseLogger.WithField("component", "scoring"),
	}
}

// LogMarketScored logs a market that produced a pick.
func (pl *PickLogger) LogMarketScored(r *models.ConfidenceResult) {
	pl.WithFields(logrus.Fields{
		"game_id":     r.GameID,
		"market":      r.Market,
		"pick_side":   r.PickSide,
		"confidence":  r.Confidence,
		"edge_pct":    r.EdgePct,
		"fair_prob":   r.FairProbability,
		"vig_pct":     r.VigPct,
		"book_id":     r.BookID,
		"price":       r.Price,
		"pattern":     r.ComponentScores.Pattern,
		"analytics":   r.ComponentScores.Analytics,
		"situational": r.ComponentScores.Situational,
		"market_comp": r.ComponentScores.Market,
	}).Info("Market scored")
}

// LogMarketSkipped logs a market that produced no pick.
func (pl *PickLogger) LogMarketSkipped(gameID string, market models.MarketType, outcome models.Outcome) {
	pl.WithFields(logrus.Fields{
		"game_id": gameID,
		"market":  market,
		"outcome": outcome,
	}).Debug("Market skipped")
}

// LogSignals logs the signal bundle computed for a market.
func (pl *PickLogger) LogSignals(b *models.SignalBundle) {
	fields := logrus.Fields{
		"game_id":        b.GameID,
		"market":         b.Market,
		"sharp_action":   b.SharpAction.State,
		"sharp_strength": b.SharpStrength,
		"steam":          b.Steam.State,
		"rlm":            b.ReverseLineMovement.State,
	}
	if b.SharpDivergence != nil {
		fields["sharp_divergence"] = *b.SharpDivergence
	}
	pl.WithFields(fields).Debug("Signals computed")
}

// LogParlaysBuilt logs a parlay generation run.
func (pl *PickLogger) LogParlaysBuilt(poolSize, evaluated, returned int) {
	pl.WithFields(logrus.Fields{
		"pool_size": poolSize,
		"evaluated": evaluated,
		"returned":  returned,
	}).Info("Parlay candidates built")
}
