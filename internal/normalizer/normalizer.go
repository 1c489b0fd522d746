// Package normalizer canonicalizes per-book quote feeds into a uniform
// per-market, per-side view of the latest fresh price at each book.
package normalizer

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-picks/internal/metrics"
	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/oddsmath"
)

// Drop reasons reported to metrics
const (
	DropWrongGame     = "wrong_game"
	DropInvalidMarket = "invalid_market"
	DropInvalidSide   = "invalid_side"
	DropInvalidPrice  = "invalid_price"
	DropStale         = "stale"
)

// Config controls quote freshness
type Config struct {
	MaxQuoteAge time.Duration
}

// BookPrice is the latest fresh quote from one book for one side
type BookPrice struct {
	BookID     string    `json:"book_id"`
	LineValue  float64   `json:"line_value"`
	Price      int       `json:"price"`
	Decimal    float64   `json:"decimal"`
	Implied    float64   `json:"implied"`
	ObservedAt time.Time `json:"observed_at"`
}

// MarketQuotes is the normalized view of one market
type MarketQuotes struct {
	GameID string            `json:"game_id"`
	Market models.MarketType `json:"market"`
	// Status is OK, DATA_UNAVAILABLE (a side has no quotes at all) or
	// STALE_DATA (a side only has quotes older than the max age).
	Status models.Outcome                       `json:"status"`
	Sides  map[models.Side]map[string]BookPrice `json:"sides"`
	// History holds every fresh observation, oldest first, for signal detection.
	History      []models.Quote `json:"-"`
	StaleDropped int            `json:"stale_dropped"`
}

// Usable reports whether both sides carry at least one fresh quote
func (m *MarketQuotes) Usable() bool {
	return m != nil && m.Status == models.OutcomeOK
}

// Books returns one side's book prices sorted by book ID
func (m *MarketQuotes) Books(side models.Side) []BookPrice {
	byBook := m.Sides[side]
	out := make([]BookPrice, 0, len(byBook))
	for _, bp := range byBook {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookID < out[j].BookID })
	return out
}

// BookCount returns the number of books quoting either side
func (m *MarketQuotes) BookCount() int {
	seen := make(map[string]struct{})
	for _, byBook := range m.Sides {
		for id := range byBook {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// BestPrice returns the best available price for a side: highest decimal
// odds, then the better number for the bettor, then book ID.
func (m *MarketQuotes) BestPrice(side models.Side) (BookPrice, bool) {
	books := m.Books(side)
	if len(books) == 0 {
		return BookPrice{}, false
	}
	best := books[0]
	for _, bp := range books[1:] {
		if bp.Decimal > best.Decimal ||
			(bp.Decimal == best.Decimal && BetterLine(m.Market, side, bp.LineValue, best.LineValue)) {
			best = bp
		}
	}
	return best, true
}

// BetterLine reports whether line a is a strictly better number than b for
// a bettor on side. More points are better on spreads and unders; a lower
// total is better on overs. Moneyline has no line.
func BetterLine(market models.MarketType, side models.Side, a, b float64) bool {
	switch market {
	case models.MarketSpread:
		return a > b
	case models.MarketTotal:
		if side == models.SideOver {
			return a < b
		}
		return a > b
	}
	return false
}

// NormalizedGame is the per-market normalized quote set for one game
type NormalizedGame struct {
	GameID  string                              `json:"game_id"`
	Markets map[models.MarketType]*MarketQuotes `json:"markets"`
	Dropped map[string]int                      `json:"dropped"`
	AsOf    time.Time                           `json:"as_of"`
}

// Market returns the normalized market, or a DATA_UNAVAILABLE placeholder
func (g *NormalizedGame) Market(m models.MarketType) *MarketQuotes {
	if mq, ok := g.Markets[m]; ok {
		return mq
	}
	return &MarketQuotes{
		GameID: g.GameID,
		Market: m,
		Status: models.OutcomeDataUnavailable,
		Sides:  map[models.Side]map[string]BookPrice{},
	}
}

// Normalizer turns raw quotes into NormalizedGames
type Normalizer struct {
	cfg    Config
	logger *logrus.Logger
}

// New creates a normalizer
func New(cfg Config, logger *logrus.Logger) *Normalizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// Normalize filters and canonicalizes the quotes for one game as of now.
// Quotes for other games, unknown markets or sides, and unusable prices are
// dropped. Quotes older than MaxQuoteAge are excluded, never extrapolated.
func (n *Normalizer) Normalize(gameID string, quotes []models.Quote, now time.Time) *NormalizedGame {
	out := &NormalizedGame{
		GameID:  gameID,
		Markets: make(map[models.MarketType]*MarketQuotes),
		Dropped: make(map[string]int),
		AsOf:    now,
	}

	// sides seen at all, including stale-only, per market
	seen := make(map[models.MarketType]map[models.Side]bool)

	sorted := make([]models.Quote, len(quotes))
	copy(sorted, quotes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ObservedAt.Before(sorted[j].ObservedAt) })

	for _, q := range sorted {
		if reason := n.reject(gameID, q); reason != "" {
			n.drop(out, q, reason)
			continue
		}

		if seen[q.Market] == nil {
			seen[q.Market] = make(map[models.Side]bool)
		}
		seen[q.Market][q.Side] = true

		mq := out.Markets[q.Market]
		if mq == nil {
			mq = &MarketQuotes{
				GameID: gameID,
				Market: q.Market,
				Sides:  make(map[models.Side]map[string]BookPrice),
			}
			out.Markets[q.Market] = mq
		}

		if n.cfg.MaxQuoteAge > 0 && now.Sub(q.ObservedAt) > n.cfg.MaxQuoteAge {
			mq.StaleDropped++
			n.drop(out, q, DropStale)
			continue
		}

		if mq.Sides[q.Side] == nil {
			mq.Sides[q.Side] = make(map[string]BookPrice)
		}
		// sorted ascending, so the last write per book is the latest
		mq.Sides[q.Side][q.BookID] = BookPrice{
			BookID:     q.BookID,
			LineValue:  q.LineValue,
			Price:      q.Price,
			Decimal:    oddsmath.MustDecimal(q.Price),
			Implied:    oddsmath.MustImpliedProbability(q.Price),
			ObservedAt: q.ObservedAt,
		}
		mq.History = append(mq.History, q)
	}

	for market, mq := range out.Markets {
		mq.Status = marketStatus(market, mq, seen[market])
		n.logger.WithFields(logrus.Fields{
			"game_id":       gameID,
			"market":        market,
			"status":        mq.Status,
			"books":         mq.BookCount(),
			"stale_dropped": mq.StaleDropped,
		}).Debug("Market normalized")
	}

	return out
}

func (n *Normalizer) reject(gameID string, q models.Quote) string {
	switch {
	case q.GameID != gameID:
		return DropWrongGame
	case !q.Market.Valid():
		return DropInvalidMarket
	case !q.Side.BelongsTo(q.Market):
		return DropInvalidSide
	case oddsmath.ValidatePrice(q.Price) != nil:
		return DropInvalidPrice
	}
	return ""
}

func (n *Normalizer) drop(out *NormalizedGame, q models.Quote, reason string) {
	out.Dropped[reason]++
	metrics.RecordQuoteDropped(reason)
	if reason != DropStale {
		n.logger.WithFields(logrus.Fields{
			"game_id": q.GameID,
			"book_id": q.BookID,
			"market":  q.Market,
			"side":    q.Side,
			"price":   q.Price,
			"reason":  reason,
		}).Debug("Quote dropped")
	}
}

func marketStatus(market models.MarketType, mq *MarketQuotes, seen map[models.Side]bool) models.Outcome {
	status := models.OutcomeOK
	for _, side := range market.Sides() {
		if len(mq.Sides[side]) > 0 {
			continue
		}
		if !seen[side] {
			return models.OutcomeDataUnavailable
		}
		status = models.OutcomeStaleData
	}
	return status
}
