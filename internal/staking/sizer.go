// Package staking converts confidence and price into a bounded
// fractional-Kelly stake recommendation.
package staking

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-picks/internal/config"
	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/oddsmath"
)

// Sizer computes fractional Kelly stakes. Bankroll is always an explicit
// argument; the sizer holds no account state.
type Sizer struct {
	cfg    config.StakeConfig
	logger *logrus.Logger
}

// NewSizer validates the multiplier and cap
func NewSizer(cfg config.StakeConfig, logger *logrus.Logger) (*Sizer, error) {
	if cfg.KellyMultiplier <= 0 || cfg.KellyMultiplier > 1 {
		return nil, fmt.Errorf("%w: kelly multiplier must be in (0,1], got %v", models.ErrInvalidConfig, cfg.KellyMultiplier)
	}
	if cfg.MaxFraction <= 0 || cfg.MaxFraction > 1 {
		return nil, fmt.Errorf("%w: max stake fraction must be in (0,1], got %v", models.ErrInvalidConfig, cfg.MaxFraction)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Sizer{cfg: cfg, logger: logger}, nil
}

// Kelly returns the full Kelly fraction f = (b·p − q) / b for decimal odds d
func Kelly(confidence, decimalOdds float64) float64 {
	b := decimalOdds - 1.0
	if b <= 0 {
		return 0
	}
	p := confidence
	q := 1.0 - p
	return (b*p - q) / b
}

// Size sizes a stake at an American price
func (s *Sizer) Size(confidence float64, americanPrice int, bankroll float64) (models.StakeRecommendation, error) {
	d, err := oddsmath.AmericanToDecimal(americanPrice)
	if err != nil {
		return models.StakeRecommendation{}, err
	}
	return s.SizeDecimal(confidence, d, bankroll)
}

// SizeResult sizes a stake for a scored pick at the price it was scored on
func (s *Sizer) SizeResult(r *models.ConfidenceResult, bankroll float64) (models.StakeRecommendation, error) {
	if r == nil {
		return models.StakeRecommendation{}, fmt.Errorf("confidence result is required")
	}
	return s.Size(r.Confidence, r.Price, bankroll)
}

// SizeDecimal sizes a stake at decimal odds. A non-positive Kelly fraction
// always yields zero; otherwise stake = min(kelly × multiplier, cap).
func (s *Sizer) SizeDecimal(confidence, decimalOdds, bankroll float64) (models.StakeRecommendation, error) {
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return models.StakeRecommendation{}, fmt.Errorf("confidence must be in [0,1], got %v", confidence)
	}
	if decimalOdds <= 1 || math.IsNaN(decimalOdds) {
		return models.StakeRecommendation{}, fmt.Errorf("decimal odds must be > 1, got %v", decimalOdds)
	}
	if bankroll < 0 || math.IsNaN(bankroll) {
		return models.StakeRecommendation{}, fmt.Errorf("bankroll must be non-negative, got %v", bankroll)
	}

	kelly := Kelly(confidence, decimalOdds)
	rec := models.StakeRecommendation{
		FullKelly:   kelly,
		DecimalOdds: decimalOdds,
	}

	if kelly <= 0 {
		s.logger.WithFields(logrus.Fields{
			"odds":       decimalOdds,
			"confidence": confidence,
			"kelly":      kelly,
		}).Debug("Negative Kelly fraction, no bet recommended")
		return rec, nil
	}

	fraction := kelly * s.cfg.KellyMultiplier
	if fraction > s.cfg.MaxFraction {
		s.logger.WithFields(logrus.Fields{
			"calculated_fraction": fraction,
			"max_fraction":        s.cfg.MaxFraction,
		}).Debug("Stake capped at maximum")
		fraction = s.cfg.MaxFraction
		rec.Capped = true
	}

	rec.FractionOfBankroll = fraction
	rec.Amount = fraction * bankroll

	s.logger.WithFields(logrus.Fields{
		"bankroll":         bankroll,
		"odds":             decimalOdds,
		"confidence":       confidence,
		"kelly_fraction":   kelly,
		"fractional_kelly": fraction,
		"stake":            rec.Amount,
	}).Debug("Position size calculated")

	return rec, nil
}
