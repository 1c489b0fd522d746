package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/clever-picks/internal/config"
	"github.com/yourusername/clever-picks/internal/database"
)

// NewTrackedBetRepository opens the ledger store selected by configuration
func NewTrackedBetRepository(ctx context.Context, cfg *config.Config) (TrackedBetRepository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	switch cfg.Ledger.Store {
	case "postgres":
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgresTrackedBetRepository(db), nil
	case "sqlite":
		return NewSQLiteTrackedBetRepository(cfg.Ledger.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported ledger store %q", cfg.Ledger.Store)
	}
}
