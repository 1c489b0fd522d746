package signals

import (
	"sync"
	"time"

	"github.com/yourusername/clever-picks/internal/models"
)

// seriesKey identifies one book's quotes for one side of one game market
type seriesKey struct {
	gameID string
	market models.MarketType
	side   models.Side
	bookID string
}

// QuoteHistory is a bounded, append-only per-book/per-game quote buffer.
// Entries older than the window are evicted on write. Readers always get a
// copy, so eviction never exposes a partially trimmed series.
type QuoteHistory struct {
	mu           sync.RWMutex
	window       time.Duration
	maxPerSeries int
	series       map[seriesKey][]models.Quote
	seen         map[string]struct{}
}

// NewQuoteHistory creates a history buffer
func NewQuoteHistory(window time.Duration, maxPerSeries int) *QuoteHistory {
	if maxPerSeries <= 0 {
		maxPerSeries = 64
	}
	return &QuoteHistory{
		window:       window,
		maxPerSeries: maxPerSeries,
		series:       make(map[seriesKey][]models.Quote),
		seen:         make(map[string]struct{}),
	}
}

// Add appends quotes not already recorded and evicts entries outside the
// window relative to now. Returns the number of new quotes stored.
func (h *QuoteHistory) Add(now time.Time, quotes ...models.Quote) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	added := 0
	touched := make(map[seriesKey]struct{})
	for _, q := range quotes {
		key := q.Key()
		if _, dup := h.seen[key]; dup {
			continue
		}
		if now.Sub(q.ObservedAt) > h.window {
			continue
		}
		sk := seriesKey{gameID: q.GameID, market: q.Market, side: q.Side, bookID: q.BookID}
		// a full series keeps its newest entries
		if cur := h.series[sk]; len(cur) >= h.maxPerSeries && q.ObservedAt.Before(cur[0].ObservedAt) {
			continue
		}
		h.series[sk] = insertSorted(h.series[sk], q)
		h.seen[key] = struct{}{}
		touched[sk] = struct{}{}
		added++
	}

	for sk := range touched {
		h.trim(sk, now)
	}
	h.evictLocked(now)
	return added
}

// Evict drops every entry older than the window relative to now
func (h *QuoteHistory) Evict(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evictLocked(now)
}

func (h *QuoteHistory) evictLocked(now time.Time) {
	for sk := range h.series {
		h.trim(sk, now)
	}
}

// trim rebuilds the series without expired or overflow entries. The old
// slice is never modified in place.
func (h *QuoteHistory) trim(sk seriesKey, now time.Time) {
	old := h.series[sk]
	start := 0
	for start < len(old) && now.Sub(old[start].ObservedAt) > h.window {
		delete(h.seen, old[start].Key())
		start++
	}
	for len(old)-start > h.maxPerSeries {
		delete(h.seen, old[start].Key())
		start++
	}
	if start == 0 {
		return
	}
	if start == len(old) {
		delete(h.series, sk)
		return
	}
	kept := make([]models.Quote, len(old)-start)
	copy(kept, old[start:])
	h.series[sk] = kept
}

// Snapshot returns copies of every series for a game market, keyed by book
// then side, restricted to the window ending at now.
func (h *QuoteHistory) Snapshot(gameID string, market models.MarketType, now time.Time) map[string]map[models.Side][]models.Quote {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]map[models.Side][]models.Quote)
	for sk, qs := range h.series {
		if sk.gameID != gameID || sk.market != market {
			continue
		}
		cp := make([]models.Quote, 0, len(qs))
		for _, q := range qs {
			if now.Sub(q.ObservedAt) <= h.window && !q.ObservedAt.After(now) {
				cp = append(cp, q)
			}
		}
		if len(cp) == 0 {
			continue
		}
		if out[sk.bookID] == nil {
			out[sk.bookID] = make(map[models.Side][]models.Quote)
		}
		out[sk.bookID][sk.side] = cp
	}
	return out
}

// Len returns the number of buffered quotes
func (h *QuoteHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, qs := range h.series {
		n += len(qs)
	}
	return n
}

// insertSorted returns a new slice with q placed in observation order
func insertSorted(qs []models.Quote, q models.Quote) []models.Quote {
	out := make([]models.Quote, 0, len(qs)+1)
	i := 0
	for i < len(qs) && !qs[i].ObservedAt.After(q.ObservedAt) {
		i++
	}
	out = append(out, qs[:i]...)
	out = append(out, q)
	out = append(out, qs[i:]...)
	return out
}
