// Package signals derives market-structure signals (sharp/square divergence,
// reverse line movement, steam) from normalized quotes.
package signals

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-picks/internal/metrics"
	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/normalizer"
	"github.com/yourusername/clever-picks/internal/oddsmath"
)

// Sharp strength boundaries on |divergence|
const (
	moderateDivergence = 1.0
	strongDivergence   = 1.5
)

// Tier classifies a sportsbook
type Tier int

const (
	TierOther Tier = iota
	TierSharp
	TierSquare
)

// Config controls the detectors
type Config struct {
	SharpBooks          []string
	SquareBooks         []string
	DivergenceThreshold float64
	RLMMinMove          float64
	MinRLMBooks         int
	SteamBooks          int
	SteamThreshold      float64
	SteamWindow         time.Duration
	HistoryMaxPerSeries int
	CacheTTL            time.Duration
}

// Inputs are the externally supplied readings for one game market
type Inputs struct {
	// PublicPct is the public percentage on the reference side, nil when absent
	PublicPct     *float64
	WeatherImpact float64
	InjuryImpact  float64
}

// Detector computes SignalBundles. It is safe for concurrent use; the only
// shared mutable state is the quote history buffer and the bundle cache.
type Detector struct {
	cfg     Config
	tiers   map[string]Tier
	history *QuoteHistory
	cache   *BundleCache
	logger  *logrus.Logger
}

// NewDetector creates a detector
func NewDetector(cfg Config, logger *logrus.Logger) *Detector {
	if logger == nil {
		logger = logrus.New()
	}
	tiers := make(map[string]Tier, len(cfg.SharpBooks)+len(cfg.SquareBooks))
	for _, b := range cfg.SharpBooks {
		tiers[strings.ToLower(b)] = TierSharp
	}
	for _, b := range cfg.SquareBooks {
		tiers[strings.ToLower(b)] = TierSquare
	}
	return &Detector{
		cfg:     cfg,
		tiers:   tiers,
		history: NewQuoteHistory(cfg.SteamWindow, cfg.HistoryMaxPerSeries),
		cache:   NewBundleCache(cfg.CacheTTL),
		logger:  logger,
	}
}

// TierOf returns the configured tier for a book
func (d *Detector) TierOf(bookID string) Tier {
	return d.tiers[strings.ToLower(bookID)]
}

// History exposes the steam quote buffer
func (d *Detector) History() *QuoteHistory {
	return d.history
}

// Detect computes the signal bundle for one normalized market. Each signal
// abstains with UNKNOWN when coverage is insufficient.
func (d *Detector) Detect(mq *normalizer.MarketQuotes, in Inputs, now time.Time) *models.SignalBundle {
	d.history.Add(now, mq.History...)

	key := CacheKey{GameID: mq.GameID, Market: mq.Market, Fingerprint: fingerprint(mq, in, now)}
	if cached, ok := d.cache.Get(key); ok {
		return cached
	}

	bundle := &models.SignalBundle{
		GameID:        mq.GameID,
		Market:        mq.Market,
		PublicPct:     in.PublicPct,
		WeatherImpact: in.WeatherImpact,
		InjuryImpact:  in.InjuryImpact,
		ComputedAt:    now,
	}

	bundle.SharpDivergence, bundle.SharpAction, bundle.SharpStrength = d.sharpAction(mq)
	bundle.ReverseLineMovement = d.reverseLineMovement(mq, in.PublicPct)
	bundle.Steam = d.steam(mq.GameID, mq.Market, now)

	if bundle.SharpAction.State == models.SignalUnknown || bundle.Steam.State == models.SignalUnknown ||
		bundle.ReverseLineMovement.State == models.SignalUnknown {
		d.logger.WithFields(logrus.Fields{
			"game_id":      mq.GameID,
			"market":       mq.Market,
			"sharp_action": bundle.SharpAction.State,
			"rlm":          bundle.ReverseLineMovement.State,
			"steam":        bundle.Steam.State,
			"books":        mq.BookCount(),
		}).Debug("Signal abstained for lack of coverage")
	}

	metrics.RecordSignal("sharp_action", string(bundle.SharpAction.State))
	metrics.RecordSignal("rlm", string(bundle.ReverseLineMovement.State))
	metrics.RecordSignal("steam", string(bundle.Steam.State))

	d.cache.Set(key, bundle)
	return bundle
}

// sharpAction compares the median sharp-tier line with the median
// square-tier line on the reference axis.
func (d *Detector) sharpAction(mq *normalizer.MarketQuotes) (*float64, models.DirectedSignal, models.SharpStrength) {
	var sharp, square []float64
	for bookID, bySide := range latestByBook(mq) {
		series := bookSeries(mq.Market, bySide)
		if len(series) == 0 {
			continue
		}
		pressure := Pressure(series[len(series)-1])
		switch d.TierOf(bookID) {
		case TierSharp:
			sharp = append(sharp, pressure)
		case TierSquare:
			square = append(square, pressure)
		}
	}

	if len(sharp) == 0 || len(square) == 0 {
		return nil, models.Unknown(), models.SharpStrengthNone
	}

	delta := oddsmath.Median(sharp) - oddsmath.Median(square)
	divergence := delta * lineSign(mq.Market)
	abs := math.Abs(divergence)

	if abs < d.cfg.DivergenceThreshold || delta == 0 {
		return &divergence, models.DirectedSignal{State: models.SignalNo}, models.SharpStrengthNone
	}

	strength := models.SharpStrengthMild
	switch {
	case abs >= strongDivergence:
		strength = models.SharpStrengthStrong
	case abs >= moderateDivergence:
		strength = models.SharpStrengthModerate
	}

	return &divergence, models.DirectedSignal{
		State: models.SignalYes,
		Side:  sideForPressure(mq.Market, delta),
	}, strength
}

// reverseLineMovement flags a move toward the public minority side on a
// majority of tracked books, comparing each book's earliest and latest quote.
func (d *Detector) reverseLineMovement(mq *normalizer.MarketQuotes, publicPct *float64) models.DirectedSignal {
	if publicPct == nil {
		return models.Unknown()
	}

	var minority models.Side
	sides := mq.Market.Sides()
	switch {
	case *publicPct < 50:
		minority = sides[0]
	case *publicPct > 50:
		minority = sides[1]
	default:
		return models.DirectedSignal{State: models.SignalNo}
	}

	tracked, moved := 0, 0
	for _, bySide := range historyByBook(mq) {
		series := bookSeries(mq.Market, bySide)
		if len(series) < 2 {
			continue
		}
		tracked++
		move := Pressure(series[len(series)-1]) - Pressure(series[0])
		if minority == sides[1] {
			move = -move
		}
		if move >= d.cfg.RLMMinMove {
			moved++
		}
	}

	if tracked == 0 || tracked < d.cfg.MinRLMBooks {
		return models.Unknown()
	}
	if moved*2 > tracked {
		return models.DirectedSignal{State: models.SignalYes, Side: minority}
	}
	return models.DirectedSignal{State: models.SignalNo}
}

// steam flags at least SteamBooks books moving the same direction by at
// least SteamThreshold inside the rolling window.
func (d *Detector) steam(gameID string, market models.MarketType, now time.Time) models.DirectedSignal {
	snapshot := d.history.Snapshot(gameID, market, now)

	reporting, up, down := 0, 0, 0
	for _, bySide := range snapshot {
		series := bookSeries(market, bySide)
		if len(series) < 2 {
			continue
		}
		reporting++
		change := Pressure(series[len(series)-1]) - Pressure(series[0])
		switch {
		case change >= d.cfg.SteamThreshold:
			up++
		case change <= -d.cfg.SteamThreshold:
			down++
		}
	}

	k := d.cfg.SteamBooks
	if k <= 0 || reporting < k {
		return models.Unknown()
	}
	switch {
	case up >= k && down >= k:
		// books steaming both ways is noise, not a move
		return models.DirectedSignal{State: models.SignalNo}
	case up >= k:
		return models.DirectedSignal{State: models.SignalYes, Side: sideForPressure(market, 1)}
	case down >= k:
		return models.DirectedSignal{State: models.SignalYes, Side: sideForPressure(market, -1)}
	}
	return models.DirectedSignal{State: models.SignalNo}
}

// latestByBook returns each book's latest fresh quote per side
func latestByBook(mq *normalizer.MarketQuotes) map[string]map[models.Side][]models.Quote {
	out := make(map[string]map[models.Side][]models.Quote)
	for side, byBook := range mq.Sides {
		for bookID, bp := range byBook {
			if out[bookID] == nil {
				out[bookID] = make(map[models.Side][]models.Quote)
			}
			out[bookID][side] = []models.Quote{{
				BookID:     bookID,
				GameID:     mq.GameID,
				Market:     mq.Market,
				Side:       side,
				LineValue:  bp.LineValue,
				Price:      bp.Price,
				ObservedAt: bp.ObservedAt,
			}}
		}
	}
	return out
}

// historyByBook groups the fresh observation history by book then side
func historyByBook(mq *normalizer.MarketQuotes) map[string]map[models.Side][]models.Quote {
	out := make(map[string]map[models.Side][]models.Quote)
	for _, q := range mq.History {
		if out[q.BookID] == nil {
			out[q.BookID] = make(map[models.Side][]models.Quote)
		}
		out[q.BookID][q.Side] = append(out[q.BookID][q.Side], q)
	}
	return out
}

// fingerprint changes whenever the quote set, the external readings or the
// minute of evaluation change
func fingerprint(mq *normalizer.MarketQuotes, in Inputs, now time.Time) string {
	var latest int64
	for _, q := range mq.History {
		if n := q.ObservedAt.UnixNano(); n > latest {
			latest = n
		}
	}
	public := "none"
	if in.PublicPct != nil {
		public = fmt.Sprintf("%.4f", *in.PublicPct)
	}
	return fmt.Sprintf("%d|%d|%s|%.4f|%.4f|%d",
		len(mq.History), latest, public, in.WeatherImpact, in.InjuryImpact, now.Truncate(time.Minute).Unix())
}
