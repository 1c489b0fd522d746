// Package engine exposes the scoring, sizing, parlay and grading operations
// behind a single façade.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clever-picks/internal/config"
	"github.com/yourusername/clever-picks/internal/ledger"
	"github.com/yourusername/clever-picks/internal/logger"
	"github.com/yourusername/clever-picks/internal/metrics"
	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/normalizer"
	"github.com/yourusername/clever-picks/internal/parlay"
	"github.com/yourusername/clever-picks/internal/scoring"
	"github.com/yourusername/clever-picks/internal/signals"
	"github.com/yourusername/clever-picks/internal/staking"
)

// ErrNoLedger is returned by ledger operations on an engine built without one.
var ErrNoLedger = errors.New("engine has no bet ledger")

// Engine wires the normalizer, signal detector, scorer, stake sizer, parlay
// builder and ledger. Scoring holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	markets    []models.MarketType
	workers    int
	normalizer *normalizer.Normalizer
	detector   *signals.Detector
	scorer     *scoring.Scorer
	sizer      *staking.Sizer
	builder    *parlay.Builder
	ledger     *ledger.Ledger
	pickLog    *logger.PickLogger
	logger     *logrus.Logger
}

// New builds an engine from the engine config tree. A nil registry gets the
// built-in providers. The ledger may be nil for scoring-only use.
func New(cfg config.EngineConfig, registry *scoring.Registry, l *ledger.Ledger, log *logrus.Logger) (*Engine, error) {
	if log == nil {
		log = logrus.New()
	}

	markets := make([]models.MarketType, 0, len(cfg.Markets))
	for _, m := range cfg.Markets {
		mt := models.MarketType(m)
		if !mt.Valid() {
			return nil, fmt.Errorf("%w: unknown market %q", models.ErrInvalidConfig, m)
		}
		markets = append(markets, mt)
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("%w: at least one market is required", models.ErrInvalidConfig)
	}

	detector := signals.NewDetector(signals.Config{
		SharpBooks:          cfg.Sharp.SharpBooks,
		SquareBooks:         cfg.Sharp.SquareBooks,
		DivergenceThreshold: cfg.Sharp.DivergenceThreshold,
		RLMMinMove:          cfg.Sharp.RLMMinMove,
		MinRLMBooks:         cfg.Sharp.MinRLMBooks,
		SteamBooks:          cfg.Sharp.SteamBooks,
		SteamThreshold:      cfg.Sharp.SteamThreshold,
		SteamWindow:         cfg.Sharp.SteamWindow,
		HistoryMaxPerSeries: cfg.Sharp.HistoryMaxPerSeries,
		CacheTTL:            cfg.Sharp.SignalCacheTTL,
	}, log)

	if registry == nil {
		registry = scoring.NewDefaultRegistry(cfg.Scoring, func(bookID string) bool {
			return detector.TierOf(bookID) == signals.TierSharp
		})
	}
	scorer, err := scoring.NewScorer(cfg.Scoring, registry, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer: %w", err)
	}
	sizer, err := staking.NewSizer(cfg.Stake, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create stake sizer: %w", err)
	}
	builder, err := parlay.NewBuilder(cfg.Parlay, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create parlay builder: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Engine{
		markets:    markets,
		workers:    workers,
		normalizer: normalizer.New(normalizer.Config{MaxQuoteAge: cfg.Normalizer.MaxQuoteAge}, log),
		detector:   detector,
		scorer:     scorer,
		sizer:      sizer,
		builder:    builder,
		ledger:     l,
		pickLog:    logger.NewPickLogger(log),
		logger:     log,
	}, nil
}

// Score evaluates every configured market of one game. Each market carries
// its own outcome; only OK markets carry a ConfidenceResult.
func (e *Engine) Score(in models.GameInput, now time.Time) models.GameScore {
	start := time.Now()
	defer func() { metrics.RecordScoringDuration(time.Since(start).Seconds()) }()

	game := e.normalizer.Normalize(in.Game.ID, in.Quotes, now)
	score := models.GameScore{GameID: in.Game.ID, ScoredAt: now}

	for _, market := range e.markets {
		mq := game.Market(market)

		inputs := signals.Inputs{WeatherImpact: in.WeatherImpact, InjuryImpact: in.InjuryImpact}
		if pct, ok := in.PublicReading(market); ok {
			inputs.PublicPct = &pct
		}

		var out models.MarketOutcome
		if mq.Usable() {
			bundle := e.detector.Detect(mq, inputs, now)
			e.pickLog.LogSignals(bundle)
			out = e.scorer.Score(scoring.MarketInput{
				Game:             in.Game,
				Quotes:           mq,
				Signals:          bundle,
				CorrelationGroup: in.CorrelationGroup,
			}, now)
		} else {
			out = e.scorer.Score(scoring.MarketInput{Game: in.Game, Quotes: mq}, now)
		}

		metrics.RecordScoringOutcome(string(market), string(out.Outcome))
		if out.Outcome == models.OutcomeOK && out.Result != nil {
			metrics.RecordConfidence(string(market), out.Result.Confidence)
			e.pickLog.LogMarketScored(out.Result)
		} else {
			e.pickLog.LogMarketSkipped(in.Game.ID, market, out.Outcome)
		}
		score.Markets = append(score.Markets, out)
	}

	return score
}

// ScoreAll scores distinct games concurrently, bounded by the configured
// worker count. Results keep the input order.
func (e *Engine) ScoreAll(ctx context.Context, inputs []models.GameInput, now time.Time) ([]models.GameScore, error) {
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if in.Game.ID == "" {
			return nil, fmt.Errorf("game input without an ID")
		}
		if _, dup := seen[in.Game.ID]; dup {
			return nil, fmt.Errorf("game %s appears more than once", in.Game.ID)
		}
		seen[in.Game.ID] = struct{}{}
	}

	results := make([]models.GameScore, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Score(inputs[i], now)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"games":   len(inputs),
		"workers": e.workers,
	}).Debug("Scored game batch")

	return results, nil
}

// Picks flattens the picks of several game scores, highest confidence first
func Picks(scores []models.GameScore) []models.ConfidenceResult {
	var picks []models.ConfidenceResult
	for _, s := range scores {
		picks = append(picks, s.Picks()...)
	}
	sort.SliceStable(picks, func(i, j int) bool {
		if picks[i].Confidence != picks[j].Confidence {
			return picks[i].Confidence > picks[j].Confidence
		}
		if picks[i].GameID != picks[j].GameID {
			return picks[i].GameID < picks[j].GameID
		}
		return picks[i].Market < picks[j].Market
	})
	return picks
}

// SizeStake recommends a stake for a pick at the given American price
func (e *Engine) SizeStake(r *models.ConfidenceResult, americanPrice int, bankroll float64) (models.StakeRecommendation, error) {
	if r == nil {
		return models.StakeRecommendation{}, fmt.Errorf("confidence result is required")
	}
	return e.sizer.Size(r.Confidence, americanPrice, bankroll)
}

// BuildParlays ranks multi-leg combinations of the given picks
func (e *Engine) BuildParlays(results []models.ConfidenceResult, c parlay.Constraints) []models.ParlayCandidate {
	return e.builder.Build(results, c)
}

// RecordPick stores a pick in the ledger
func (e *Engine) RecordPick(ctx context.Context, r *models.ConfidenceResult, stake models.StakeRecommendation) (*models.TrackedBet, error) {
	if e.ledger == nil {
		return nil, ErrNoLedger
	}
	return e.ledger.RecordPick(ctx, r, stake)
}

// Grade applies a settlement to one tracked bet
func (e *Engine) Grade(ctx context.Context, betID uuid.UUID, s models.Settlement) (*models.TrackedBet, models.Outcome, error) {
	if e.ledger == nil {
		return nil, "", ErrNoLedger
	}
	return e.ledger.Grade(ctx, betID, s)
}

// GradePending sweeps all pending bets against the score feed
func (e *Engine) GradePending(ctx context.Context, feed ledger.ScoreFeed) (models.SweepSummary, error) {
	if e.ledger == nil {
		return models.SweepSummary{}, ErrNoLedger
	}
	return e.ledger.GradePending(ctx, feed)
}

// Sweep returns a function that runs GradePending against feed, for use by
// the scheduler.
func (e *Engine) Sweep(feed ledger.ScoreFeed) func(ctx context.Context) (models.SweepSummary, error) {
	return func(ctx context.Context) (models.SweepSummary, error) {
		return e.GradePending(ctx, feed)
	}
}

// Performance aggregates graded bets placed within window
func (e *Engine) Performance(ctx context.Context, window models.TimeWindow, filters models.PerformanceFilters) (*models.PerformanceStats, error) {
	if e.ledger == nil {
		return nil, ErrNoLedger
	}
	return e.ledger.Performance(ctx, window, filters)
}

// Snapshot summarizes the ledger at now
func (e *Engine) Snapshot(ctx context.Context, now time.Time) (*models.LedgerSnapshot, error) {
	if e.ledger == nil {
		return nil, ErrNoLedger
	}
	return e.ledger.Snapshot(ctx, now)
}

// Ledger returns the underlying ledger, nil when none was configured
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Markets returns the markets scored for each game
func (e *Engine) Markets() []models.MarketType {
	out := make([]models.MarketType, len(e.markets))
	copy(out, e.markets)
	return out
}
