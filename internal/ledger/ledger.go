// Package ledger records picks as tracked bets, grades them against final
// scores and aggregates performance on read.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-picks/internal/config"
	"github.com/yourusername/clever-picks/internal/logger"
	"github.com/yourusername/clever-picks/internal/metrics"
	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/repository"
)

// ScoreFeed supplies final scores and closing lines for settled games. A nil
// settlement with a nil error means the feed has nothing for the game yet.
type ScoreFeed interface {
	FetchSettlement(ctx context.Context, gameID string) (*models.Settlement, error)
}

// Ledger is the bet ledger and grader
type Ledger struct {
	repo   repository.TrackedBetRepository
	locks  *betLocks
	tiers  config.TiersConfig
	audit  *logger.AuditLogger
	logger *logrus.Logger
	now    func() time.Time
}

// New creates a ledger over a tracked bet store
func New(repo repository.TrackedBetRepository, tiers config.TiersConfig, log *logrus.Logger) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("tracked bet repository is required")
	}
	if tiers.Medium <= 0 || tiers.High < tiers.Medium || tiers.High > 1 {
		return nil, fmt.Errorf("%w: confidence tiers must satisfy 0 < medium <= high <= 1", models.ErrInvalidConfig)
	}
	if log == nil {
		log = logrus.New()
	}
	return &Ledger{
		repo:   repo,
		locks:  newBetLocks(),
		tiers:  tiers,
		audit:  logger.NewAuditLogger(log),
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// RecordPick snapshots a pick as a PENDING bet. Recording the same
// (game, market, side) again returns the bet already on file.
func (l *Ledger) RecordPick(ctx context.Context, r *models.ConfidenceResult, stake models.StakeRecommendation) (*models.TrackedBet, error) {
	if r == nil {
		return nil, fmt.Errorf("confidence result is required")
	}
	if stake.FractionOfBankroll < 0 {
		return nil, fmt.Errorf("stake fraction must be non-negative, got %v", stake.FractionOfBankroll)
	}

	bet := &models.TrackedBet{
		ID:               uuid.New(),
		GameID:           r.GameID,
		League:           r.League,
		Market:           r.Market,
		PickSide:         r.PickSide,
		BookID:           r.BookID,
		LineAtPick:       r.LineValue,
		PriceAtPick:      r.Price,
		ConfidenceAtPick: r.Confidence,
		EdgePctAtPick:    r.EdgePct,
		StakeFraction:    stake.FractionOfBankroll,
		Result:           models.BetResultPending,
		StartTime:        r.StartTime,
		PlacedAt:         l.now(),
	}

	err := l.repo.Create(ctx, bet)
	if errors.Is(err, models.ErrDuplicateKey) {
		existing, getErr := l.repo.GetByPick(ctx, r.GameID, r.Market, r.PickSide)
		if getErr != nil {
			return nil, fmt.Errorf("failed to load recorded pick: %w", getErr)
		}
		l.logger.WithFields(logrus.Fields{
			"bet_id":    existing.ID.String(),
			"game_id":   existing.GameID,
			"market":    existing.Market,
			"pick_side": existing.PickSide,
		}).Debug("Pick already recorded")
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record pick: %w", err)
	}

	l.audit.LogPickRecorded(bet)
	metrics.RecordPickRecorded(string(bet.Market))

	return bet, nil
}

// Grade settles a pending bet. Grading a terminal bet returns it unchanged.
// An unfinished game or incomplete score leaves the bet PENDING with
// OutcomeGradingAmbiguous.
func (l *Ledger) Grade(ctx context.Context, betID uuid.UUID, s models.Settlement) (*models.TrackedBet, models.Outcome, error) {
	unlock := l.locks.Lock(betID.String())
	defer unlock()

	bet, err := l.repo.GetByID(ctx, betID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load bet %s: %w", betID, err)
	}
	if bet.Result.IsTerminal() {
		return bet, models.OutcomeOK, nil
	}
	if s.Game.ID != bet.GameID {
		return nil, "", fmt.Errorf("settlement for game %s does not match bet game %s", s.Game.ID, bet.GameID)
	}

	if !s.Game.IsFinal() {
		l.ambiguous(bet, s.Game.Status, "game not final or score incomplete")
		return bet, models.OutcomeGradingAmbiguous, nil
	}

	result, ok := GradeResult(bet.Market, bet.PickSide, bet.LineAtPick, s.Game.FinalScore)
	if !ok {
		l.ambiguous(bet, s.Game.Status, "unsupported market or side")
		return bet, models.OutcomeGradingAmbiguous, nil
	}

	graded := bet.Clone()
	gradedAt := l.now()
	graded.Result = result
	graded.ActualScore = s.Game.FinalScore.Clone()
	graded.GradedAt = &gradedAt

	if closing := s.ClosingFor(bet.Market, bet.PickSide); closing != nil {
		line := closing.LineValue
		price := closing.Price
		graded.ClosingLine = &line
		graded.ClosingPrice = &price
		if clv, ok := ClosingLineValue(bet, *closing); ok {
			graded.CLV = &clv
		}
	}

	applied, err := l.repo.Settle(ctx, graded)
	if err != nil {
		return nil, "", fmt.Errorf("failed to settle bet %s: %w", betID, err)
	}
	if !applied {
		// another process settled it between our read and write
		stored, err := l.repo.GetByID(ctx, betID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to reload bet %s: %w", betID, err)
		}
		return stored, models.OutcomeOK, nil
	}

	l.audit.LogBetGraded(graded)
	metrics.RecordBetGraded(string(graded.Result))

	return graded, models.OutcomeOK, nil
}

func (l *Ledger) ambiguous(bet *models.TrackedBet, status models.GameStatus, reason string) {
	l.audit.LogGradingAmbiguous(bet.ID.String(), bet.GameID, status, reason)
	metrics.RecordGradingAmbiguous()
}

// GradePending sweeps every pending bet, fetching each game's settlement
// once. Feed failures are counted and retried on the next sweep.
func (l *Ledger) GradePending(ctx context.Context, feed ScoreFeed) (models.SweepSummary, error) {
	start := time.Now()
	var summary models.SweepSummary

	pending, err := l.repo.GetPending(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to load pending bets: %w", err)
	}

	byGame := make(map[string][]*models.TrackedBet)
	var games []string
	for _, bet := range pending {
		if _, ok := byGame[bet.GameID]; !ok {
			games = append(games, bet.GameID)
		}
		byGame[bet.GameID] = append(byGame[bet.GameID], bet)
	}

	remaining := 0
	for _, gameID := range games {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		bets := byGame[gameID]
		summary.Checked += len(bets)

		settlement, err := feed.FetchSettlement(ctx, gameID)
		if err != nil {
			l.logger.WithError(err).WithField("game_id", gameID).Warn("Failed to fetch settlement")
			summary.Failed += len(bets)
			remaining += len(bets)
			continue
		}
		if settlement == nil {
			for _, bet := range bets {
				l.ambiguous(bet, "", "no settlement reported")
			}
			summary.Ambiguous += len(bets)
			remaining += len(bets)
			continue
		}

		for _, bet := range bets {
			_, outcome, err := l.Grade(ctx, bet.ID, *settlement)
			switch {
			case err != nil:
				l.logger.WithError(err).WithField("bet_id", bet.ID.String()).Error("Failed to grade bet")
				summary.Failed++
				remaining++
			case outcome == models.OutcomeGradingAmbiguous:
				summary.Ambiguous++
				remaining++
			default:
				summary.Graded++
			}
		}
	}

	summary.Duration = time.Since(start)
	metrics.UpdatePendingBets(remaining)
	metrics.RecordSweepDuration(summary.Duration.Seconds())
	l.audit.LogSweepCompleted(summary, l.now())

	return summary, nil
}

// Ping verifies the ledger store is reachable
func (l *Ledger) Ping(ctx context.Context) error {
	return l.repo.Ping(ctx)
}

// Get returns a bet by ID
func (l *Ledger) Get(ctx context.Context, betID uuid.UUID) (*models.TrackedBet, error) {
	return l.repo.GetByID(ctx, betID)
}
