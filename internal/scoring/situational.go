package scoring

import (
	"math"

	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/normalizer"
	"github.com/yourusername/clever-picks/internal/oddsmath"
)

// Situational factor increments
const (
	keyNumberBonus  = 0.02
	publicFadeBonus = 0.02
	lineValueBonus  = 0.02
	keyNumberBand   = 0.5
	lineValueMin    = 1.0
)

// Situational scores key-number position, public fades and line shopping value
type Situational struct {
	KeyNumbers          []float64
	PublicFadeThreshold float64
}

// Name returns the provider name
func (s *Situational) Name() string { return "situational" }

// Score sums the situational factors for the context's side
func (s *Situational) Score(ctx GameContext) float64 {
	score := 0.0

	if ctx.Market == models.MarketSpread {
		if line, ok := ctx.Line(); ok && s.onKeyNumber(line) {
			score += keyNumberBonus
		}
	}

	if ctx.Signals != nil && s.PublicFadeThreshold > 0 {
		if pub, ok := ctx.Signals.PublicOn(ctx.Side.Opposite()); ok && pub > s.PublicFadeThreshold {
			score += publicFadeBonus
		}
		if pub, ok := ctx.Signals.PublicOn(ctx.Side); ok && pub > s.PublicFadeThreshold {
			score -= publicFadeBonus
		}
	}

	if ctx.Market != models.MarketMoneyline && lineValue(ctx.Quotes, ctx.Market, ctx.Side) >= lineValueMin {
		score += lineValueBonus
	}

	return score
}

// onKeyNumber reports whether a spread line sits on the good side of a key
// number: taking points through it (+3, +3.5) or laying points under it
// (-2.5, -3).
func (s *Situational) onKeyNumber(line float64) bool {
	abs := math.Abs(line)
	for _, k := range s.KeyNumbers {
		if line > 0 && abs >= k && abs <= k+keyNumberBand {
			return true
		}
		if line < 0 && abs <= k && abs >= k-keyNumberBand {
			return true
		}
	}
	return false
}

// lineValue returns how many points the best line beats the median line by
// for a bettor on side
func lineValue(mq *normalizer.MarketQuotes, market models.MarketType, side models.Side) float64 {
	books := mq.Books(side)
	if len(books) < 2 {
		return 0
	}
	best, ok := mq.BestPrice(side)
	if !ok {
		return 0
	}
	lines := make([]float64, len(books))
	for i, b := range books {
		lines[i] = b.LineValue
	}
	med := oddsmath.Median(lines)
	if market == models.MarketTotal && side == models.SideOver {
		return med - best.LineValue
	}
	return best.LineValue - med
}
