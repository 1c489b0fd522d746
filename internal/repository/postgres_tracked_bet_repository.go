package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/clever-picks/internal/database"
	"github.com/yourusername/clever-picks/internal/models"
)

// PostgresTrackedBetRepository implements TrackedBetRepository for PostgreSQL
type PostgresTrackedBetRepository struct {
	db *database.DB
}

// NewPostgresTrackedBetRepository creates a new tracked bet repository
func NewPostgresTrackedBetRepository(db *database.DB) TrackedBetRepository {
	return &PostgresTrackedBetRepository{db: db}
}

// Create inserts a new pending bet
func (r *PostgresTrackedBetRepository) Create(ctx context.Context, bet *models.TrackedBet) error {
	query := `
		INSERT INTO tracked_bets (` + trackedBetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (game_id, market, pick_side) DO NOTHING
	`

	home, away := splitScore(bet.ActualScore)
	tag, err := r.db.GetPool().Exec(ctx, query,
		bet.ID, bet.GameID, bet.League, string(bet.Market), string(bet.PickSide), bet.BookID,
		bet.LineAtPick, bet.PriceAtPick, bet.ClosingLine, bet.ClosingPrice, bet.CLV,
		bet.ConfidenceAtPick, bet.EdgePctAtPick, bet.StakeFraction, string(bet.Result),
		home, away, bet.StartTime, bet.PlacedAt, bet.GradedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tracked bet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrDuplicateKey
	}

	return nil
}

// GetByID retrieves a bet by ID
func (r *PostgresTrackedBetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TrackedBet, error) {
	query := `SELECT ` + trackedBetColumns + ` FROM tracked_bets WHERE id = $1`

	bet, err := scanPostgresBet(r.db.GetPool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked bet: %w", err)
	}

	return bet, nil
}

// GetByPick retrieves the bet recorded for a game market side
func (r *PostgresTrackedBetRepository) GetByPick(ctx context.Context, gameID string, market models.MarketType, side models.Side) (*models.TrackedBet, error) {
	query := `SELECT ` + trackedBetColumns + ` FROM tracked_bets
		WHERE game_id = $1 AND market = $2 AND pick_side = $3`

	bet, err := scanPostgresBet(r.db.GetPool().QueryRow(ctx, query, gameID, string(market), string(side)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked bet by pick: %w", err)
	}

	return bet, nil
}

// GetPending retrieves all pending bets, oldest first
func (r *PostgresTrackedBetRepository) GetPending(ctx context.Context) ([]*models.TrackedBet, error) {
	query := `SELECT ` + trackedBetColumns + ` FROM tracked_bets
		WHERE result = 'PENDING'
		ORDER BY placed_at ASC`

	return r.query(ctx, query)
}

// List retrieves bets placed within the window
func (r *PostgresTrackedBetRepository) List(ctx context.Context, window models.TimeWindow) ([]*models.TrackedBet, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !window.Start.IsZero() {
		args = append(args, window.Start)
		conds = append(conds, fmt.Sprintf("placed_at >= $%d", len(args)))
	}
	if !window.End.IsZero() {
		args = append(args, window.End)
		conds = append(conds, fmt.Sprintf("placed_at <= $%d", len(args)))
	}

	query := `SELECT ` + trackedBetColumns + ` FROM tracked_bets`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY placed_at ASC`

	return r.query(ctx, query, args...)
}

// Settle locks the row and applies the terminal transition if still pending
func (r *PostgresTrackedBetRepository) Settle(ctx context.Context, bet *models.TrackedBet) (bool, error) {
	applied := false

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx, `SELECT result FROM tracked_bets WHERE id = $1 FOR UPDATE`, bet.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock tracked bet: %w", err)
		}
		if models.BetResult(current).IsTerminal() {
			return nil
		}

		home, away := splitScore(bet.ActualScore)
		_, err = tx.Exec(ctx, `
			UPDATE tracked_bets SET
				result = $2, closing_line = $3, closing_price = $4, clv = $5,
				home_score = $6, away_score = $7, graded_at = $8
			WHERE id = $1
		`, bet.ID, string(bet.Result), bet.ClosingLine, bet.ClosingPrice, bet.CLV, home, away, bet.GradedAt)
		if err != nil {
			return fmt.Errorf("failed to settle tracked bet: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

// Ping verifies the store is reachable
func (r *PostgresTrackedBetRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close releases the connection pool
func (r *PostgresTrackedBetRepository) Close() error {
	r.db.Close()
	return nil
}

func (r *PostgresTrackedBetRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.TrackedBet, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.TrackedBet
	for rows.Next() {
		bet, err := scanPostgresBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracked bet: %w", err)
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}

func scanPostgresBet(row pgx.Row) (*models.TrackedBet, error) {
	var (
		bet          models.TrackedBet
		market, side string
		result       string
		home, away   *float64
	)
	err := row.Scan(
		&bet.ID, &bet.GameID, &bet.League, &market, &side, &bet.BookID,
		&bet.LineAtPick, &bet.PriceAtPick, &bet.ClosingLine, &bet.ClosingPrice, &bet.CLV,
		&bet.ConfidenceAtPick, &bet.EdgePctAtPick, &bet.StakeFraction, &result,
		&home, &away, &bet.StartTime, &bet.PlacedAt, &bet.GradedAt,
	)
	if err != nil {
		return nil, err
	}
	bet.Market = models.MarketType(market)
	bet.PickSide = models.Side(side)
	bet.Result = models.BetResult(result)
	bet.ActualScore = joinScore(home, away)
	return &bet, nil
}
