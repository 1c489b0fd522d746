package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/clever-picks/internal/models"
)

// TrackedBetRepository defines the interface for ledger data access
type TrackedBetRepository interface {
	// Create inserts a pending bet. A bet already recorded for the same
	// (game, market, side) returns models.ErrDuplicateKey.
	Create(ctx context.Context, bet *models.TrackedBet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TrackedBet, error)
	GetByPick(ctx context.Context, gameID string, market models.MarketType, side models.Side) (*models.TrackedBet, error)
	GetPending(ctx context.Context) ([]*models.TrackedBet, error)
	List(ctx context.Context, window models.TimeWindow) ([]*models.TrackedBet, error)
	// Settle applies the terminal transition only while the stored bet is
	// still PENDING. It reports false when another writer got there first.
	Settle(ctx context.Context, bet *models.TrackedBet) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

const trackedBetColumns = `id, game_id, league, market, pick_side, book_id, line_at_pick, price_at_pick,
		closing_line, closing_price, clv, confidence_at_pick, edge_pct_at_pick, stake_fraction,
		result, home_score, away_score, start_time, placed_at, graded_at`

func splitScore(s *models.FinalScore) (home, away *float64) {
	if s == nil {
		return nil, nil
	}
	return s.Home, s.Away
}

func joinScore(home, away *float64) *models.FinalScore {
	if home == nil && away == nil {
		return nil
	}
	return &models.FinalScore{Home: home, Away: away}
}
