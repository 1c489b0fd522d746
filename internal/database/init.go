package database

import (
	"context"
	"fmt"

	"github.com/yourusername/clever-picks/internal/config"
)

// TrackedBetsSchema creates the Postgres ledger table. The unique key on
// (game_id, market, pick_side) makes re-recording a pick a no-op.
const TrackedBetsSchema = `
CREATE TABLE IF NOT EXISTS tracked_bets (
    id                 UUID PRIMARY KEY,
    game_id            TEXT             NOT NULL,
    league             TEXT             NOT NULL DEFAULT '',
    market             TEXT             NOT NULL,
    pick_side          TEXT             NOT NULL,
    book_id            TEXT             NOT NULL DEFAULT '',
    line_at_pick       DOUBLE PRECISION NOT NULL,
    price_at_pick      INTEGER          NOT NULL,
    closing_line       DOUBLE PRECISION,
    closing_price      INTEGER,
    clv                DOUBLE PRECISION,
    confidence_at_pick DOUBLE PRECISION NOT NULL,
    edge_pct_at_pick   DOUBLE PRECISION NOT NULL,
    stake_fraction     DOUBLE PRECISION NOT NULL,
    result             TEXT             NOT NULL DEFAULT 'PENDING',
    home_score         DOUBLE PRECISION,
    away_score         DOUBLE PRECISION,
    start_time         TIMESTAMPTZ      NOT NULL,
    placed_at          TIMESTAMPTZ      NOT NULL,
    graded_at          TIMESTAMPTZ,
    UNIQUE (game_id, market, pick_side)
);

CREATE INDEX IF NOT EXISTS idx_tracked_bets_pending ON tracked_bets(placed_at) WHERE result = 'PENDING';
CREATE INDEX IF NOT EXISTS idx_tracked_bets_placed  ON tracked_bets(placed_at DESC);
`

// Initialize creates a connection pool and applies the ledger schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if _, err := db.pool.Exec(ctx, TrackedBetsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply ledger schema: %w", err)
	}

	return db, nil
}
