package models

import (
	"fmt"
	"time"
)

// GameStatus represents the lifecycle state of a game
type GameStatus string

const (
	GameStatusScheduled GameStatus = "scheduled"
	GameStatusLive      GameStatus = "live"
	GameStatusFinal     GameStatus = "final"
)

func (s GameStatus) rank() int {
	switch s {
	case GameStatusScheduled:
		return 0
	case GameStatusLive:
		return 1
	case GameStatusFinal:
		return 2
	}
	return -1
}

// FinalScore holds the reported score. Either side may be missing while the
// feed is incomplete.
type FinalScore struct {
	Home *float64 `json:"home,omitempty"`
	Away *float64 `json:"away,omitempty"`
}

// NewFinalScore builds a complete score
func NewFinalScore(home, away float64) *FinalScore {
	return &FinalScore{Home: &home, Away: &away}
}

// IsComplete reports whether both sides of the score are known
func (f *FinalScore) IsComplete() bool {
	return f != nil && f.Home != nil && f.Away != nil
}

// Clone returns a deep copy
func (f *FinalScore) Clone() *FinalScore {
	if f == nil {
		return nil
	}
	c := &FinalScore{}
	if f.Home != nil {
		h := *f.Home
		c.Home = &h
	}
	if f.Away != nil {
		a := *f.Away
		c.Away = &a
	}
	return c
}

// Game represents a scheduled sporting event
type Game struct {
	ID         string      `db:"id" json:"id" validate:"required"`
	League     string      `db:"league" json:"league"`
	HomeTeam   string      `db:"home_team" json:"home_team"`
	AwayTeam   string      `db:"away_team" json:"away_team"`
	StartTime  time.Time   `db:"start_time" json:"start_time"`
	Status     GameStatus  `db:"status" json:"status"`
	FinalScore *FinalScore `db:"-" json:"final_score,omitempty"`
}

// AdvanceStatus moves the game forward in its lifecycle. Status never reverses.
func (g *Game) AdvanceStatus(next GameStatus) error {
	if next.rank() < 0 {
		return fmt.Errorf("unknown game status %q", next)
	}
	if next.rank() < g.Status.rank() {
		return fmt.Errorf("game %s cannot move from %s back to %s", g.ID, g.Status, next)
	}
	g.Status = next
	return nil
}

// IsFinal reports whether the game is final with a complete score
func (g *Game) IsFinal() bool {
	return g.Status == GameStatusFinal && g.FinalScore.IsComplete()
}

// GameInput bundles the already-fetched inputs the engine scores for one game
type GameInput struct {
	Game   Game    `json:"game"`
	Quotes []Quote `json:"quotes"`
	// PublicPct is the public betting percentage on each market's reference
	// side (home/over), 0-100. A missing market means no reading.
	PublicPct map[MarketType]float64 `json:"public_pct,omitempty"`
	// WeatherImpact and InjuryImpact are signed toward the reference side.
	WeatherImpact float64 `json:"weather_impact"`
	InjuryImpact  float64 `json:"injury_impact"`
	// CorrelationGroup marks picks from this game as correlated with other
	// games sharing the same non-empty group.
	CorrelationGroup string `json:"correlation_group,omitempty"`
}

// PublicReading returns the public percentage for the market, if present
func (in GameInput) PublicReading(m MarketType) (float64, bool) {
	if in.PublicPct == nil {
		return 0, false
	}
	pct, ok := in.PublicPct[m]
	return pct, ok
}

// ClosingQuote is the market's final number for one side
type ClosingQuote struct {
	Market    MarketType `json:"market"`
	Side      Side       `json:"side"`
	LineValue float64    `json:"line_value"`
	Price     int        `json:"price"`
}

// Settlement is the final-score event delivered by the score feed
type Settlement struct {
	Game    Game           `json:"game"`
	Closing []ClosingQuote `json:"closing,omitempty"`
}

// ClosingFor returns the closing quote for a market side, if reported
func (s Settlement) ClosingFor(m MarketType, side Side) *ClosingQuote {
	for i := range s.Closing {
		if s.Closing[i].Market == m && s.Closing[i].Side == side {
			return &s.Closing[i]
		}
	}
	return nil
}
