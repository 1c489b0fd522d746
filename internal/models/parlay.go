package models

import (
	"strings"

	"github.com/google/uuid"
)

// ParlayLeg is one pick within a parlay
type ParlayLeg struct {
	GameID     string     `json:"game_id"`
	Market     MarketType `json:"market"`
	PickSide   Side       `json:"pick_side"`
	Confidence float64    `json:"confidence"`
	Price      int        `json:"price"`
	LineValue  float64    `json:"line_value"`
}

// ParlayCandidate is a ranked multi-leg combination
type ParlayCandidate struct {
	ID               uuid.UUID   `json:"id"`
	Legs             []ParlayLeg `json:"legs"`
	JointProbability float64     `json:"joint_probability"`
	ExpectedValue    float64     `json:"expected_value"`
	PayoutMultiplier float64     `json:"payout_multiplier"`
	Correlated       bool        `json:"correlated"`
}

// Signature returns a stable identity for the leg combination
func (p ParlayCandidate) Signature() string {
	parts := make([]string, len(p.Legs))
	for i, leg := range p.Legs {
		parts[i] = leg.GameID + "/" + string(leg.Market) + "/" + string(leg.PickSide)
	}
	return strings.Join(parts, "+")
}
