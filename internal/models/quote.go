package models

import (
	"fmt"
	"time"
)

// MarketType represents the type of betting market
type MarketType string

const (
	MarketSpread    MarketType = "spread"
	MarketTotal     MarketType = "total"
	MarketMoneyline MarketType = "moneyline"
)

// AllMarkets lists the markets the engine scores, in evaluation order
var AllMarkets = []MarketType{MarketSpread, MarketTotal, MarketMoneyline}

// Valid reports whether the market type is known
func (m MarketType) Valid() bool {
	switch m {
	case MarketSpread, MarketTotal, MarketMoneyline:
		return true
	}
	return false
}

// Sides returns the two sides of a two-way market. The first side is the
// reference side used for signed signal values (home for spread/moneyline,
// over for totals).
func (m MarketType) Sides() [2]Side {
	if m == MarketTotal {
		return [2]Side{SideOver, SideUnder}
	}
	return [2]Side{SideHome, SideAway}
}

// Side represents one side of a two-way market
type Side string

const (
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// Opposite returns the other side of the same market
func (s Side) Opposite() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	case SideOver:
		return SideUnder
	case SideUnder:
		return SideOver
	}
	return s
}

// BelongsTo reports whether the side is valid for the market
func (s Side) BelongsTo(m MarketType) bool {
	sides := m.Sides()
	return s == sides[0] || s == sides[1]
}

// IsReference reports whether the side is the market's reference side
func (s Side) IsReference(m MarketType) bool {
	return s == m.Sides()[0]
}

// Quote is a single price observation from one sportsbook. Spread lines are
// expressed from the quoted side's perspective (home -3.5 / away +3.5); totals
// carry the same total on both sides; moneyline quotes have a zero line.
type Quote struct {
	BookID     string     `db:"book_id" json:"book_id" validate:"required"`
	GameID     string     `db:"game_id" json:"game_id" validate:"required"`
	Market     MarketType `db:"market" json:"market" validate:"required,oneof=spread total moneyline"`
	Side       Side       `db:"side" json:"side" validate:"required,oneof=home away over under"`
	LineValue  float64    `db:"line_value" json:"line_value"`
	Price      int        `db:"price" json:"price" validate:"required"`
	ObservedAt time.Time  `db:"observed_at" json:"observed_at" validate:"required"`
}

// Key returns the unique identity of the quote
func (q Quote) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d", q.BookID, q.GameID, q.Market, q.Side, q.ObservedAt.UnixNano())
}

// IsValidPrice reports whether the price is a usable American price
func (q Quote) IsValidPrice() bool {
	return q.Price >= 100 || q.Price <= -100
}
