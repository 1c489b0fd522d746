package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yourusername/clever-picks/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tracked_bets (
    id                 TEXT    PRIMARY KEY,
    game_id            TEXT    NOT NULL,
    league             TEXT    NOT NULL DEFAULT '',
    market             TEXT    NOT NULL,
    pick_side          TEXT    NOT NULL,
    book_id            TEXT    NOT NULL DEFAULT '',
    line_at_pick       REAL    NOT NULL,
    price_at_pick      INTEGER NOT NULL,
    closing_line       REAL,
    closing_price      INTEGER,
    clv                REAL,
    confidence_at_pick REAL    NOT NULL,
    edge_pct_at_pick   REAL    NOT NULL,
    stake_fraction     REAL    NOT NULL,
    result             TEXT    NOT NULL DEFAULT 'PENDING',
    home_score         REAL,
    away_score         REAL,
    start_time         TEXT    NOT NULL,
    placed_at          TEXT    NOT NULL,
    graded_at          TEXT,
    UNIQUE (game_id, market, pick_side)
);

CREATE INDEX IF NOT EXISTS idx_tracked_bets_result ON tracked_bets(result);
CREATE INDEX IF NOT EXISTS idx_tracked_bets_placed ON tracked_bets(placed_at);
`

// Fixed-width UTC layout so stored timestamps sort lexically
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteTrackedBetRepository implements TrackedBetRepository on an embedded
// SQLite database (pure Go, no cgo).
type SQLiteTrackedBetRepository struct {
	db *sql.DB
}

// NewSQLiteTrackedBetRepository opens (or creates) the database at path and
// applies the schema. ":memory:" gives a private in-process ledger.
func NewSQLiteTrackedBetRepository(path string) (*SQLiteTrackedBetRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite ledger %q: %w", path, err)
	}
	// single writer; also keeps :memory: on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply sqlite ledger schema: %w", err)
	}

	return &SQLiteTrackedBetRepository{db: db}, nil
}

// Create inserts a new pending bet
func (r *SQLiteTrackedBetRepository) Create(ctx context.Context, bet *models.TrackedBet) error {
	query := `
		INSERT INTO tracked_bets (` + trackedBetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (game_id, market, pick_side) DO NOTHING
	`

	home, away := splitScore(bet.ActualScore)
	res, err := r.db.ExecContext(ctx, query,
		bet.ID.String(), bet.GameID, bet.League, string(bet.Market), string(bet.PickSide), bet.BookID,
		bet.LineAtPick, bet.PriceAtPick, bet.ClosingLine, bet.ClosingPrice, bet.CLV,
		bet.ConfidenceAtPick, bet.EdgePctAtPick, bet.StakeFraction, string(bet.Result),
		home, away, formatTime(bet.StartTime), formatTime(bet.PlacedAt), formatTimePtr(bet.GradedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create tracked bet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create tracked bet: %w", err)
	}
	if n == 0 {
		return models.ErrDuplicateKey
	}

	return nil
}

// GetByID retrieves a bet by ID
func (r *SQLiteTrackedBetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TrackedBet, error) {
	query := `SELECT ` + trackedBetColumns + ` FROM tracked_bets WHERE id = ?`

	bet, err := scanSQLiteBet(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked bet: %w", err)
	}

	return bet, nil
}

// GetByPick retrieves the bet recorded for a game market side
func (r *SQLiteTrackedBetRepository) GetByPick(ctx context.Context, gameID string, market models.MarketType, side models.Side) (*models.TrackedBet, error) {
	query := `SELECT ` + trackedBetColumns + ` FROM tracked_bets
		WHERE game_id = ? AND market = ? AND pick_side = ?`

	bet, err := scanSQLiteBet(r.db.QueryRowContext(ctx, query, gameID, string(market), string(side)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked bet by pick: %w", err)
	}

	return bet, nil
}

// GetPending retrieves all pending bets, oldest first
func (r *SQLiteTrackedBetRepository) GetPending(ctx context.Context) ([]*models.TrackedBet, error) {
	query := `SELECT ` + trackedBetColumns + ` FROM tracked_bets
		WHERE result = 'PENDING'
		ORDER BY placed_at ASC`

	return r.query(ctx, query)
}

// List retrieves bets placed within the window
func (r *SQLiteTrackedBetRepository) List(ctx context.Context, window models.TimeWindow) ([]*models.TrackedBet, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !window.Start.IsZero() {
		conds = append(conds, "placed_at >= ?")
		args = append(args, formatTime(window.Start))
	}
	if !window.End.IsZero() {
		conds = append(conds, "placed_at <= ?")
		args = append(args, formatTime(window.End))
	}

	query := `SELECT ` + trackedBetColumns + ` FROM tracked_bets`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY placed_at ASC`

	return r.query(ctx, query, args...)
}

// Settle applies the terminal transition with a conditional update so a
// second writer never overwrites a graded bet.
func (r *SQLiteTrackedBetRepository) Settle(ctx context.Context, bet *models.TrackedBet) (bool, error) {
	home, away := splitScore(bet.ActualScore)
	res, err := r.db.ExecContext(ctx, `
		UPDATE tracked_bets SET
			result = ?, closing_line = ?, closing_price = ?, clv = ?,
			home_score = ?, away_score = ?, graded_at = ?
		WHERE id = ? AND result = 'PENDING'
	`, string(bet.Result), bet.ClosingLine, bet.ClosingPrice, bet.CLV, home, away,
		formatTimePtr(bet.GradedAt), bet.ID.String())
	if err != nil {
		return false, fmt.Errorf("failed to settle tracked bet: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to settle tracked bet: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM tracked_bets WHERE id = ?`, bet.ID.String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, models.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tracked bet: %w", err)
	}

	return false, nil
}

// Ping verifies the store is reachable
func (r *SQLiteTrackedBetRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database
func (r *SQLiteTrackedBetRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteTrackedBetRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.TrackedBet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.TrackedBet
	for rows.Next() {
		bet, err := scanSQLiteBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracked bet: %w", err)
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteBet(row rowScanner) (*models.TrackedBet, error) {
	var (
		bet                          models.TrackedBet
		id, market, side, result     string
		startTime, placedAt          string
		closingLine, clv, home, away sql.NullFloat64
		closingPrice                 sql.NullInt64
		gradedAt                     sql.NullString
	)
	err := row.Scan(
		&id, &bet.GameID, &bet.League, &market, &side, &bet.BookID,
		&bet.LineAtPick, &bet.PriceAtPick, &closingLine, &closingPrice, &clv,
		&bet.ConfidenceAtPick, &bet.EdgePctAtPick, &bet.StakeFraction, &result,
		&home, &away, &startTime, &placedAt, &gradedAt,
	)
	if err != nil {
		return nil, err
	}

	if bet.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidID, id)
	}
	bet.Market = models.MarketType(market)
	bet.PickSide = models.Side(side)
	bet.Result = models.BetResult(result)
	bet.ClosingLine = floatPtr(closingLine)
	bet.CLV = floatPtr(clv)
	bet.ActualScore = joinScore(floatPtr(home), floatPtr(away))
	if closingPrice.Valid {
		p := int(closingPrice.Int64)
		bet.ClosingPrice = &p
	}
	if bet.StartTime, err = parseTime(startTime); err != nil {
		return nil, err
	}
	if bet.PlacedAt, err = parseTime(placedAt); err != nil {
		return nil, err
	}
	if gradedAt.Valid {
		t, err := parseTime(gradedAt.String)
		if err != nil {
			return nil, err
		}
		bet.GradedAt = &t
	}

	return &bet, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}
