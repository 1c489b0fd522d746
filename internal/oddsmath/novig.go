package oddsmath

import (
	"github.com/shopspring/decimal"
)

// TwoWayMarket is a priced two-outcome market. Side 1 is the reference side.
type TwoWayMarket struct {
	Price1 int
	Price2 int
}

// FairMarket is a two-way market with the vig removed
type FairMarket struct {
	Implied1 float64
	Implied2 float64
	Fair1    float64
	Fair2    float64
	// Vig is the overround: implied1 + implied2 - 1
	Vig float64
}

// VigPct returns the overround as a percentage
func (f FairMarket) VigPct() float64 {
	return f.Vig * 100
}

// Fair returns the fair probability for side index 0 or 1
func (f FairMarket) Fair(idx int) float64 {
	if idx == 0 {
		return f.Fair1
	}
	return f.Fair2
}

// DeVig removes the vig from a two-way market by proportional normalization.
// The larger fair probability is computed in decimal arithmetic and the other
// is its complement, so Fair1 + Fair2 == 1 exactly in float64.
//
// Example:
// Side A: -110 (52.38% implied) | Side B: -110 (52.38% implied)
// Overround: 4.76%
// Fair: 50% / 50%
func DeVig(m TwoWayMarket) (FairMarket, error) {
	p1, err := ImpliedProbability(m.Price1)
	if err != nil {
		return FairMarket{}, err
	}
	p2, err := ImpliedProbability(m.Price2)
	if err != nil {
		return FairMarket{}, err
	}

	d1 := decimal.NewFromFloat(p1)
	d2 := decimal.NewFromFloat(p2)
	total := d1.Add(d2)

	out := FairMarket{
		Implied1: p1,
		Implied2: p2,
		Vig:      total.Sub(decimal.NewFromInt(1)).InexactFloat64(),
	}

	// Complement off the larger side: 1 - x is exact for x in [0.5, 1]
	if d1.GreaterThanOrEqual(d2) {
		out.Fair1 = d1.DivRound(total, 16).InexactFloat64()
		out.Fair2 = 1 - out.Fair1
	} else {
		out.Fair2 = d2.DivRound(total, 16).InexactFloat64()
		out.Fair1 = 1 - out.Fair2
	}
	return out, nil
}

// SharpConsensus averages the de-vigged reference-side probability across books.
// Returns ok=false when no market is supplied or every market is unusable.
func SharpConsensus(markets []TwoWayMarket) (fair1 float64, ok bool) {
	sum := decimal.Zero
	n := 0
	for _, m := range markets {
		fm, err := DeVig(m)
		if err != nil {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(fm.Fair1))
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum.Div(decimal.NewFromInt(int64(n))).InexactFloat64(), true
}
