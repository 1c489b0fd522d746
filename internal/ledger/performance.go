package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/oddsmath"
)

// TierFor buckets a confidence into the configured tiers
func (l *Ledger) TierFor(confidence float64) models.ConfidenceTier {
	switch {
	case confidence >= l.tiers.High:
		return models.TierHigh
	case confidence >= l.tiers.Medium:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

// Performance aggregates every bet placed in the window that passes the
// filters. Nothing is cached; each call reads the full bet set.
func (l *Ledger) Performance(ctx context.Context, window models.TimeWindow, filters models.PerformanceFilters) (*models.PerformanceStats, error) {
	bets, err := l.repo.List(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}

	stats := &models.PerformanceStats{
		Window: window,
		ByConfidence: map[models.ConfidenceTier]models.Record{
			models.TierHigh:   {},
			models.TierMedium: {},
			models.TierLow:    {},
		},
		ByMarket: make(map[models.MarketType]models.Record),
	}

	var clvSum float64
	for _, bet := range bets {
		if !filters.Matches(bet) {
			continue
		}
		stats.TotalBets++
		if !bet.Result.IsTerminal() {
			stats.Pending++
			continue
		}

		stats.Record.Add(bet.Result)

		tier := l.TierFor(bet.ConfidenceAtPick)
		rec := stats.ByConfidence[tier]
		rec.Add(bet.Result)
		stats.ByConfidence[tier] = rec

		rec = stats.ByMarket[bet.Market]
		rec.Add(bet.Result)
		stats.ByMarket[bet.Market] = rec

		d, err := oddsmath.AmericanToDecimal(bet.PriceAtPick)
		if err != nil {
			l.logger.WithField("bet_id", bet.ID.String()).Warn("Skipping units for bet with invalid price")
		} else {
			stats.UnitsStaked += bet.StakeFraction
			stats.UnitsWon += bet.Units(d)
			stats.FlatUnits += flatUnits(bet.Result, d)
		}

		if bet.CLV != nil {
			clvSum += *bet.CLV
			stats.CLVSamples++
		}
	}

	stats.WinRate = stats.Record.WinRate()
	if stats.UnitsStaked > 0 {
		stats.ROI = stats.UnitsWon / stats.UnitsStaked
	}
	if stats.CLVSamples > 0 {
		stats.AverageCLV = clvSum / float64(stats.CLVSamples)
	}

	return stats, nil
}

func flatUnits(result models.BetResult, decimalOdds float64) float64 {
	switch result {
	case models.BetResultWin:
		return decimalOdds - 1
	case models.BetResultLoss:
		return -1
	}
	return 0
}

// Snapshot summarizes the ledger as of now
func (l *Ledger) Snapshot(ctx context.Context, now time.Time) (*models.LedgerSnapshot, error) {
	bets, err := l.repo.List(ctx, models.TimeWindow{End: now})
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}

	snap := &models.LedgerSnapshot{
		ID:        uuid.New(),
		TakenAt:   now,
		TotalBets: len(bets),
	}
	var confSum float64
	for _, bet := range bets {
		confSum += bet.ConfidenceAtPick
		if bet.Result.IsTerminal() {
			snap.Record.Add(bet.Result)
		} else {
			snap.Pending++
		}
	}
	if len(bets) > 0 {
		snap.AvgConfidence = confSum / float64(len(bets))
	}

	return snap, nil
}
