package signals

import (
	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/oddsmath"
)

// Pressure maps a quote onto the market's reference axis: the value rises
// when money comes in on the reference side (home, or over for totals).
//
//	spread    home -3 → -3.5 is +0.5 (away quotes use the away line as-is)
//	total     47 → 47.5 is +0.5 on either side
//	moneyline reference-side implied probability in points
func Pressure(q models.Quote) float64 {
	switch q.Market {
	case models.MarketSpread:
		if q.Side == models.SideHome {
			return -q.LineValue
		}
		return q.LineValue
	case models.MarketTotal:
		return q.LineValue
	case models.MarketMoneyline:
		p, err := oddsmath.ImpliedProbability(q.Price)
		if err != nil {
			return 0
		}
		if q.Side == models.SideHome {
			return p * 100
		}
		return 100 - p*100
	}
	return 0
}

// lineSign converts a pressure difference back into reference-side line
// units. Spread lines fall as pressure rises; totals and moneyline points
// move with it.
func lineSign(market models.MarketType) float64 {
	if market == models.MarketSpread {
		return -1
	}
	return 1
}

// sideForPressure returns the side a positive or negative pressure move favors
func sideForPressure(market models.MarketType, delta float64) models.Side {
	sides := market.Sides()
	if delta > 0 {
		return sides[0]
	}
	return sides[1]
}

// bookSeries picks the series used to track a book: the reference side when
// the book quotes it, otherwise the opposite side. Mixing both sides of one
// book would read vig differences as movement.
func bookSeries(market models.MarketType, bySide map[models.Side][]models.Quote) []models.Quote {
	sides := market.Sides()
	if qs := bySide[sides[0]]; len(qs) > 0 {
		return qs
	}
	return bySide[sides[1]]
}
