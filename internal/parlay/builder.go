// Package parlay combines per-game picks into ranked multi-leg parlay
// candidates.
package parlay

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-picks/internal/config"
	"github.com/yourusername/clever-picks/internal/logger"
	"github.com/yourusername/clever-picks/internal/metrics"
	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/oddsmath"
)

// Constraints narrows one Build call. Zero values fall back to config.
type Constraints struct {
	From    time.Time
	To      time.Time
	MaxLegs int
}

// Builder generates parlay candidates from scored picks
type Builder struct {
	cfg     config.ParlayConfig
	logger  *logrus.Logger
	pickLog *logger.PickLogger
	newID   func() uuid.UUID
}

// NewBuilder creates a parlay builder
func NewBuilder(cfg config.ParlayConfig, log *logrus.Logger) (*Builder, error) {
	if cfg.MinLegs < 2 || cfg.MaxLegs < cfg.MinLegs {
		return nil, fmt.Errorf("%w: parlay legs must satisfy 2 <= min_legs <= max_legs", models.ErrInvalidConfig)
	}
	if cfg.MaxPoolLegs < cfg.MaxLegs {
		return nil, fmt.Errorf("%w: max_pool_legs must be >= max_legs", models.ErrInvalidConfig)
	}
	if cfg.MaxCandidates <= 0 {
		return nil, fmt.Errorf("%w: max_candidates must be positive", models.ErrInvalidConfig)
	}
	if cfg.CorrelationDiscount <= 0 || cfg.CorrelationDiscount > 1 {
		return nil, fmt.Errorf("%w: correlation_discount must be in (0,1]", models.ErrInvalidConfig)
	}
	if log == nil {
		log = logrus.New()
	}
	return &Builder{
		cfg:     cfg,
		logger:  log,
		pickLog: logger.NewPickLogger(log),
		newID:   uuid.New,
	}, nil
}

type leg struct {
	result  models.ConfidenceResult
	decimal float64
}

// Build ranks every admissible combination of MinLegs..MaxLegs picks by
// expected value and returns at most MaxCandidates.
func (b *Builder) Build(results []models.ConfidenceResult, c Constraints) []models.ParlayCandidate {
	pool := b.pool(results, c)

	maxLegs := b.cfg.MaxLegs
	if c.MaxLegs > 0 && c.MaxLegs < maxLegs {
		maxLegs = c.MaxLegs
	}

	var candidates []models.ParlayCandidate
	evaluated := 0
	chosen := make([]int, 0, maxLegs)

	var walk func(start int)
	walk = func(start int) {
		if len(chosen) >= b.cfg.MinLegs {
			evaluated++
			candidates = append(candidates, b.candidate(pool, chosen))
		}
		if len(chosen) == maxLegs {
			return
		}
		for i := start; i < len(pool); i++ {
			if !b.compatible(pool, chosen, i) {
				continue
			}
			chosen = append(chosen, i)
			walk(i + 1)
			chosen = chosen[:len(chosen)-1]
		}
	}
	if maxLegs >= b.cfg.MinLegs {
		walk(0)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return ranksBefore(candidates[i], candidates[j])
	})
	if len(candidates) > b.cfg.MaxCandidates {
		candidates = candidates[:b.cfg.MaxCandidates]
	}
	for i := range candidates {
		candidates[i].ID = b.newID()
	}

	b.pickLog.LogParlaysBuilt(len(pool), evaluated, len(candidates))
	metrics.UpdateParlayCandidates(len(candidates))

	return candidates
}

// pool filters picks to positive-edge, in-window, confident legs and keeps
// the strongest MaxPoolLegs by edge.
func (b *Builder) pool(results []models.ConfidenceResult, c Constraints) []leg {
	var pool []leg
	for _, r := range results {
		if !r.HasEdge() || r.Confidence < b.cfg.MinLegConfidence {
			continue
		}
		if !c.From.IsZero() && r.StartTime.Before(c.From) {
			continue
		}
		if !c.To.IsZero() && r.StartTime.After(c.To) {
			continue
		}
		d, err := oddsmath.AmericanToDecimal(r.Price)
		if err != nil {
			b.logger.WithFields(logrus.Fields{
				"game_id": r.GameID,
				"market":  r.Market,
				"price":   r.Price,
			}).Debug("Skipping parlay leg with invalid price")
			continue
		}
		pool = append(pool, leg{result: r, decimal: d})
	}

	sort.SliceStable(pool, func(i, j int) bool {
		x, y := pool[i].result, pool[j].result
		if x.EdgePct != y.EdgePct {
			return x.EdgePct > y.EdgePct
		}
		if x.Confidence != y.Confidence {
			return x.Confidence > y.Confidence
		}
		if x.GameID != y.GameID {
			return x.GameID < y.GameID
		}
		return x.Market < y.Market
	})
	if len(pool) > b.cfg.MaxPoolLegs {
		pool = pool[:b.cfg.MaxPoolLegs]
	}
	return pool
}

// compatible reports whether pool[next] may join the chosen legs. Legs from
// one game are allowed only with AllowSameGame and never on the same market.
func (b *Builder) compatible(pool []leg, chosen []int, next int) bool {
	n := pool[next].result
	for _, idx := range chosen {
		r := pool[idx].result
		if r.GameID != n.GameID {
			continue
		}
		if !b.cfg.AllowSameGame || r.Market == n.Market {
			return false
		}
	}
	return true
}

func (b *Builder) candidate(pool []leg, chosen []int) models.ParlayCandidate {
	legs := make([]models.ParlayLeg, len(chosen))
	joint := 1.0
	payout := 1.0
	for i, idx := range chosen {
		r := pool[idx].result
		legs[i] = models.ParlayLeg{
			GameID:     r.GameID,
			Market:     r.Market,
			PickSide:   r.PickSide,
			Confidence: r.Confidence,
			Price:      r.Price,
			LineValue:  r.LineValue,
		}
		joint *= r.Confidence
		payout *= pool[idx].decimal
	}

	correlated := isCorrelated(pool, chosen)
	if correlated {
		joint *= b.cfg.CorrelationDiscount
	}

	return models.ParlayCandidate{
		Legs:             legs,
		JointProbability: joint,
		PayoutMultiplier: payout,
		ExpectedValue:    ExpectedValue(joint, payout),
		Correlated:       correlated,
	}
}

// ExpectedValue is joint × payout − (1 − joint) per unit staked
func ExpectedValue(joint, payout float64) float64 {
	return joint*payout - (1 - joint)
}

func isCorrelated(pool []leg, chosen []int) bool {
	games := make(map[string]bool, len(chosen))
	groups := make(map[string]bool, len(chosen))
	for _, idx := range chosen {
		r := pool[idx].result
		if games[r.GameID] {
			return true
		}
		games[r.GameID] = true
		if r.CorrelationGroup == "" {
			continue
		}
		if groups[r.CorrelationGroup] {
			return true
		}
		groups[r.CorrelationGroup] = true
	}
	return false
}

// ranksBefore orders by EV, then joint probability, then fewer legs
func ranksBefore(a, b models.ParlayCandidate) bool {
	if a.ExpectedValue != b.ExpectedValue {
		return a.ExpectedValue > b.ExpectedValue
	}
	if a.JointProbability != b.JointProbability {
		return a.JointProbability > b.JointProbability
	}
	if len(a.Legs) != len(b.Legs) {
		return len(a.Legs) < len(b.Legs)
	}
	return a.Signature() < b.Signature()
}
