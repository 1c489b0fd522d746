package ledger

import (
	"math"

	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/oddsmath"
)

const pushEpsilon = 1e-9

// GradeResult settles a pick against a complete final score. line is the
// picked side's number: the spread for spreads, the total for totals, and
// ignored for moneylines.
func GradeResult(market models.MarketType, side models.Side, line float64, score *models.FinalScore) (models.BetResult, bool) {
	if !score.IsComplete() {
		return models.BetResultPending, false
	}
	home, away := *score.Home, *score.Away

	switch market {
	case models.MarketSpread:
		margin := home - away
		if side == models.SideAway {
			margin = -margin
		}
		return compare(margin + line), true
	case models.MarketTotal:
		combined := home + away
		switch side {
		case models.SideOver:
			return compare(combined - line), true
		case models.SideUnder:
			return compare(line - combined), true
		}
	case models.MarketMoneyline:
		margin := home - away
		if side == models.SideAway {
			margin = -margin
		}
		// no push on a moneyline: a tie is a loss for either side
		if margin > pushEpsilon {
			return models.BetResultWin, true
		}
		return models.BetResultLoss, true
	}

	return models.BetResultPending, false
}

func compare(v float64) models.BetResult {
	switch {
	case math.Abs(v) <= pushEpsilon:
		return models.BetResultPush
	case v > 0:
		return models.BetResultWin
	default:
		return models.BetResultLoss
	}
}

// ClosingLineValue is positive when the pick beat the closing number. Spread
// and total CLV is in points; moneyline CLV is in implied-probability cents.
func ClosingLineValue(bet *models.TrackedBet, closing models.ClosingQuote) (float64, bool) {
	switch bet.Market {
	case models.MarketSpread:
		return bet.LineAtPick - closing.LineValue, true
	case models.MarketTotal:
		if bet.PickSide == models.SideOver {
			return closing.LineValue - bet.LineAtPick, true
		}
		return bet.LineAtPick - closing.LineValue, true
	case models.MarketMoneyline:
		atPick, err := oddsmath.ImpliedProbability(bet.PriceAtPick)
		if err != nil {
			return 0, false
		}
		atClose, err := oddsmath.ImpliedProbability(closing.Price)
		if err != nil {
			return 0, false
		}
		return (atClose - atPick) * 100, true
	}
	return 0, false
}
