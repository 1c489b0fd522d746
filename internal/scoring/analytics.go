package scoring

import (
	"github.com/yourusername/clever-picks/internal/oddsmath"
)

// SharpConsensus scores the gap between the sharp books' de-vigged
// probability and the market's de-vigged probability at the best prices
type SharpConsensus struct {
	IsSharp func(bookID string) bool
}

// Name returns the provider name
func (s *SharpConsensus) Name() string { return "sharp_consensus" }

// Score returns sharp fair probability minus market fair probability for the side
func (s *SharpConsensus) Score(ctx GameContext) float64 {
	if s.IsSharp == nil || ctx.Quotes == nil {
		return 0
	}
	sides := ctx.Market.Sides()
	ref := ctx.Quotes.Sides[sides[0]]
	opp := ctx.Quotes.Sides[sides[1]]

	var markets []oddsmath.TwoWayMarket
	for bookID, bp := range ref {
		if !s.IsSharp(bookID) {
			continue
		}
		other, ok := opp[bookID]
		if !ok {
			continue
		}
		markets = append(markets, oddsmath.TwoWayMarket{Price1: bp.Price, Price2: other.Price})
	}

	fairRef, ok := oddsmath.SharpConsensus(markets)
	if !ok {
		return 0
	}
	fair := fairRef
	if !ctx.Side.IsReference(ctx.Market) {
		fair = 1 - fairRef
	}
	return fair - ctx.FairProbability
}
