package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-picks/internal/config"
	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/normalizer"
	"github.com/yourusername/clever-picks/internal/oddsmath"
)

const (
	fixedBaseline = 0.50

	BaselineFixed  = "fixed"
	BaselineMarket = "market"
)

// MarketInput is one normalized market with its signals
type MarketInput struct {
	Game             models.Game
	Quotes           *normalizer.MarketQuotes
	Signals          *models.SignalBundle
	CorrelationGroup string
}

// sideScore is the evaluation of one side of a market
type sideScore struct {
	side       models.Side
	best       normalizer.BookPrice
	fair       float64
	components models.ComponentScores
	confidence float64
	edgePct    float64
}

// Scorer computes confidence and edge per market. It holds only immutable
// configuration and is safe for concurrent use.
type Scorer struct {
	cfg         config.ScoringConfig
	pattern     Provider
	analytics   Provider
	situational Provider
	logger      *logrus.Logger
}

// NewScorer validates the weights and resolves the configured providers.
// Misconfiguration fails with models.ErrInvalidConfig.
func NewScorer(cfg config.ScoringConfig, registry *Registry, logger *logrus.Logger) (*Scorer, error) {
	if err := config.ValidateWeights(cfg.Weights); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}
	if cfg.ComponentCap <= 0 {
		return nil, fmt.Errorf("%w: component cap must be positive", models.ErrInvalidConfig)
	}
	if cfg.Baseline == "" {
		cfg.Baseline = BaselineFixed
	}
	if cfg.Baseline != BaselineFixed && cfg.Baseline != BaselineMarket {
		return nil, fmt.Errorf("%w: unknown baseline %q", models.ErrInvalidConfig, cfg.Baseline)
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: provider registry is required", models.ErrInvalidConfig)
	}

	pattern, err := registry.Get(cfg.PatternProvider)
	if err != nil {
		return nil, err
	}
	analytics, err := registry.Get(cfg.AnalyticsProvider)
	if err != nil {
		return nil, err
	}
	situational, err := registry.Get(cfg.SituationalProvider)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &Scorer{
		cfg:         cfg,
		pattern:     pattern,
		analytics:   analytics,
		situational: situational,
		logger:      logger,
	}, nil
}

// Score evaluates both sides of a market and returns an outcome value.
// DATA_UNAVAILABLE and STALE_DATA propagate from normalization; NO_EDGE is
// returned when neither side clears its de-vigged breakeven or the edges tie.
func (s *Scorer) Score(in MarketInput, now time.Time) models.MarketOutcome {
	out := models.MarketOutcome{Market: in.Quotes.Market, Signals: in.Signals}

	if !in.Quotes.Usable() {
		out.Outcome = in.Quotes.Status
		if out.Outcome == models.OutcomeOK || out.Outcome == "" {
			out.Outcome = models.OutcomeDataUnavailable
		}
		return out
	}

	sides := in.Quotes.Market.Sides()
	best0, ok0 := in.Quotes.BestPrice(sides[0])
	best1, ok1 := in.Quotes.BestPrice(sides[1])
	if !ok0 || !ok1 {
		out.Outcome = models.OutcomeDataUnavailable
		return out
	}

	fm, err := oddsmath.DeVig(oddsmath.TwoWayMarket{Price1: best0.Price, Price2: best1.Price})
	if err != nil {
		out.Outcome = models.OutcomeDataUnavailable
		return out
	}

	scores := [2]sideScore{
		s.scoreSide(in, sides[0], best0, fm.Fair1),
		s.scoreSide(in, sides[1], best1, fm.Fair2),
	}

	pick, ok := s.choose(scores)
	if !ok {
		out.Outcome = models.OutcomeNoEdge
		s.logger.WithFields(logrus.Fields{
			"game_id":        in.Game.ID,
			"market":         in.Quotes.Market,
			"edge_reference": scores[0].edgePct,
			"edge_opposite":  scores[1].edgePct,
		}).Debug("No side clears breakeven")
		return out
	}

	out.Outcome = models.OutcomeOK
	out.Result = &models.ConfidenceResult{
		GameID:           in.Game.ID,
		League:           in.Game.League,
		Market:           in.Quotes.Market,
		PickSide:         pick.side,
		Confidence:       pick.confidence,
		EdgePct:          pick.edgePct,
		FairProbability:  pick.fair,
		VigPct:           fm.VigPct(),
		LineValue:        pick.best.LineValue,
		Price:            pick.best.Price,
		BookID:           pick.best.BookID,
		ComponentScores:  pick.components,
		StartTime:        in.Game.StartTime,
		CorrelationGroup: in.CorrelationGroup,
		ScoredAt:         now,
	}
	return out
}

func (s *Scorer) scoreSide(in MarketInput, side models.Side, best normalizer.BookPrice, fair float64) sideScore {
	ctx := GameContext{
		Game:            in.Game,
		Market:          in.Quotes.Market,
		Side:            side,
		Quotes:          in.Quotes,
		Signals:         in.Signals,
		FairProbability: fair,
	}

	components := models.ComponentScores{
		Pattern:     s.clampComponent(s.pattern.Score(ctx)),
		Analytics:   s.clampComponent(s.analytics.Score(ctx)),
		Situational: s.clampComponent(s.situational.Score(ctx)),
		Market:      s.clampComponent(MarketComponent(in.Signals, side)),
	}

	confidence := s.Combine(s.baseline(fair), components)

	return sideScore{
		side:       side,
		best:       best,
		fair:       fair,
		components: components,
		confidence: confidence,
		edgePct:    (confidence - fair) * 100,
	}
}

// Combine applies the weights to pre-clamped component scores and clamps
// the result to [0, 1]
func (s *Scorer) Combine(baseline float64, c models.ComponentScores) float64 {
	w := s.cfg.Weights
	sum := w.Pattern*s.clampComponent(c.Pattern) +
		w.Analytics*s.clampComponent(c.Analytics) +
		w.Situational*s.clampComponent(c.Situational) +
		w.Market*s.clampComponent(c.Market)
	return clamp(baseline+sum, 0, 1)
}

func (s *Scorer) baseline(fair float64) float64 {
	if s.cfg.Baseline == BaselineMarket {
		return fair
	}
	return fixedBaseline
}

// choose returns the side with the larger positive edge. Ties within
// epsilon and markets where neither edge is positive yield no pick.
func (s *Scorer) choose(scores [2]sideScore) (sideScore, bool) {
	a, b := scores[0], scores[1]
	if a.edgePct <= 0 && b.edgePct <= 0 {
		return sideScore{}, false
	}
	if math.Abs(a.edgePct-b.edgePct) <= s.cfg.EdgeEpsilon {
		return sideScore{}, false
	}
	if a.edgePct > b.edgePct {
		return a, true
	}
	return b, true
}

func (s *Scorer) clampComponent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, -s.cfg.ComponentCap, s.cfg.ComponentCap)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
