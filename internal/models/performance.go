package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConfidenceTier buckets picks by confidence at pick time
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// Record is a win/loss/push tally
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Pushes int `json:"pushes"`
}

// Add tallies a terminal result
func (r *Record) Add(result BetResult) {
	switch result {
	case BetResultWin:
		r.Wins++
	case BetResultLoss:
		r.Losses++
	case BetResultPush:
		r.Pushes++
	}
}

// Graded returns the number of graded bets in the record
func (r Record) Graded() int {
	return r.Wins + r.Losses + r.Pushes
}

// WinRate returns wins over decided (non-push) bets, 0 when none are decided
func (r Record) WinRate() float64 {
	decided := r.Wins + r.Losses
	if decided == 0 {
		return 0
	}
	return float64(r.Wins) / float64(decided)
}

// String renders the record as W-L or W-L-P
func (r Record) String() string {
	if r.Pushes > 0 {
		return fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Pushes)
	}
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

// TimeWindow bounds a performance query on placement time. Zero bounds are open.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// PerformanceFilters narrows a performance query
type PerformanceFilters struct {
	Market        MarketType `json:"market,omitempty"`
	League        string     `json:"league,omitempty"`
	MinConfidence float64    `json:"min_confidence,omitempty"`
}

// Matches reports whether a bet passes the filters
func (f PerformanceFilters) Matches(b *TrackedBet) bool {
	if f.Market != "" && b.Market != f.Market {
		return false
	}
	if f.League != "" && b.League != f.League {
		return false
	}
	return b.ConfidenceAtPick >= f.MinConfidence
}

// PerformanceStats is recomputed on every read from the full bet set
type PerformanceStats struct {
	Window       TimeWindow                `json:"window"`
	TotalBets    int                       `json:"total_bets"`
	Pending      int                       `json:"pending"`
	Record       Record                    `json:"record"`
	WinRate      float64                   `json:"win_rate"`
	UnitsStaked  float64                   `json:"units_staked"`
	UnitsWon     float64                   `json:"units_won"`
	ROI          float64                   `json:"roi"`
	FlatUnits    float64                   `json:"flat_units"`
	AverageCLV   float64                   `json:"average_clv"`
	CLVSamples   int                       `json:"clv_samples"`
	ByConfidence map[ConfidenceTier]Record `json:"by_confidence"`
	ByMarket     map[MarketType]Record     `json:"by_market"`
}

// LedgerSnapshot is a point-in-time summary of the tracked bets
type LedgerSnapshot struct {
	ID            uuid.UUID `json:"id"`
	TakenAt       time.Time `json:"taken_at"`
	TotalBets     int       `json:"total_bets"`
	Pending       int       `json:"pending"`
	Record        Record    `json:"record"`
	AvgConfidence float64   `json:"avg_confidence"`
}

// SweepSummary reports one pass over pending bets
type SweepSummary struct {
	Checked   int           `json:"checked"`
	Graded    int           `json:"graded"`
	Ambiguous int           `json:"ambiguous"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}
