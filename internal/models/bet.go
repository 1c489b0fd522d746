package models

import (
	"time"

	"github.com/google/uuid"
)

// BetResult represents the grading state of a tracked bet
type BetResult string

const (
	BetResultPending BetResult = "PENDING"
	BetResultWin     BetResult = "WIN"
	BetResultLoss    BetResult = "LOSS"
	BetResultPush    BetResult = "PUSH"
)

// IsTerminal reports whether the result can no longer change
func (r BetResult) IsTerminal() bool {
	return r == BetResultWin || r == BetResultLoss || r == BetResultPush
}

// TrackedBet is the ledger snapshot of a pick taken at emission time
type TrackedBet struct {
	ID               uuid.UUID   `db:"id" json:"id" validate:"required"`
	GameID           string      `db:"game_id" json:"game_id" validate:"required"`
	League           string      `db:"league" json:"league"`
	Market           MarketType  `db:"market" json:"market" validate:"required,oneof=spread total moneyline"`
	PickSide         Side        `db:"pick_side" json:"pick_side" validate:"required,oneof=home away over under"`
	BookID           string      `db:"book_id" json:"book_id"`
	LineAtPick       float64     `db:"line_at_pick" json:"line_at_pick"`
	PriceAtPick      int         `db:"price_at_pick" json:"price_at_pick"`
	ClosingLine      *float64    `db:"closing_line" json:"closing_line,omitempty"`
	ClosingPrice     *int        `db:"closing_price" json:"closing_price,omitempty"`
	CLV              *float64    `db:"clv" json:"clv,omitempty"`
	ConfidenceAtPick float64     `db:"confidence_at_pick" json:"confidence_at_pick" validate:"gte=0,lte=1"`
	EdgePctAtPick    float64     `db:"edge_pct_at_pick" json:"edge_pct_at_pick"`
	StakeFraction    float64     `db:"stake_fraction" json:"stake_fraction" validate:"gte=0"`
	Result           BetResult   `db:"result" json:"result" validate:"required"`
	ActualScore      *FinalScore `db:"-" json:"actual_score,omitempty"`
	StartTime        time.Time   `db:"start_time" json:"start_time"`
	PlacedAt         time.Time   `db:"placed_at" json:"placed_at" validate:"required"`
	GradedAt         *time.Time  `db:"graded_at" json:"graded_at,omitempty"`
}

// IsSettled checks if the bet has been graded
func (b *TrackedBet) IsSettled() bool {
	return b.Result.IsTerminal() && b.GradedAt != nil
}

// Units returns the profit in stake units at the price taken. Pending bets
// and pushes return zero.
func (b *TrackedBet) Units(decimalOdds float64) float64 {
	switch b.Result {
	case BetResultWin:
		return b.StakeFraction * (decimalOdds - 1)
	case BetResultLoss:
		return -b.StakeFraction
	}
	return 0
}

// Clone returns a deep copy so callers cannot alias ledger state
func (b *TrackedBet) Clone() *TrackedBet {
	if b == nil {
		return nil
	}
	c := *b
	if b.ClosingLine != nil {
		v := *b.ClosingLine
		c.ClosingLine = &v
	}
	if b.ClosingPrice != nil {
		v := *b.ClosingPrice
		c.ClosingPrice = &v
	}
	if b.CLV != nil {
		v := *b.CLV
		c.CLV = &v
	}
	c.ActualScore = b.ActualScore.Clone()
	if b.GradedAt != nil {
		t := *b.GradedAt
		c.GradedAt = &t
	}
	return &c
}
