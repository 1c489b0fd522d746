package models

import "time"

// ComponentScores is the per-component breakdown of a confidence score.
// Each value is the clamped raw score before weighting.
type ComponentScores struct {
	Pattern     float64 `json:"pattern"`
	Analytics   float64 `json:"analytics"`
	Situational float64 `json:"situational"`
	Market      float64 `json:"market"`
}

// ConfidenceResult is the scored pick for one game market. Later scoring
// runs supersede it; it is never mutated.
type ConfidenceResult struct {
	GameID           string          `json:"game_id" validate:"required"`
	League           string          `json:"league,omitempty"`
	Market           MarketType      `json:"market" validate:"required"`
	PickSide         Side            `json:"pick_side" validate:"required"`
	Confidence       float64         `json:"confidence" validate:"gte=0,lte=1"`
	EdgePct          float64         `json:"edge_pct"`
	FairProbability  float64         `json:"fair_probability"`
	VigPct           float64         `json:"vig_pct"`
	LineValue        float64         `json:"line_value"`
	Price            int             `json:"price"`
	BookID           string          `json:"book_id"`
	ComponentScores  ComponentScores `json:"component_scores"`
	StartTime        time.Time       `json:"start_time"`
	CorrelationGroup string          `json:"correlation_group,omitempty"`
	ScoredAt         time.Time       `json:"scored_at"`
}

// HasEdge reports whether the pick clears the de-vigged breakeven
func (r *ConfidenceResult) HasEdge() bool {
	return r.EdgePct > 0
}

// MarketOutcome is the scoring outcome for one market of a game
type MarketOutcome struct {
	Market  MarketType        `json:"market"`
	Outcome Outcome           `json:"outcome"`
	Result  *ConfidenceResult `json:"result,omitempty"`
	Signals *SignalBundle     `json:"signals,omitempty"`
}

// GameScore is the result of one scoring run over a game
type GameScore struct {
	GameID   string          `json:"game_id"`
	Markets  []MarketOutcome `json:"markets"`
	ScoredAt time.Time       `json:"scored_at"`
}

// Picks returns the confidence results of markets that produced a pick
func (g GameScore) Picks() []ConfidenceResult {
	var picks []ConfidenceResult
	for _, m := range g.Markets {
		if m.Outcome == OutcomeOK && m.Result != nil {
			picks = append(picks, *m.Result)
		}
	}
	return picks
}

// Outcome returns the outcome for a market, DATA_UNAVAILABLE if it was not scored
func (g GameScore) Outcome(market MarketType) Outcome {
	for _, m := range g.Markets {
		if m.Market == market {
			return m.Outcome
		}
	}
	return OutcomeDataUnavailable
}

// StakeRecommendation is derived from a ConfidenceResult and never stored on its own
type StakeRecommendation struct {
	FractionOfBankroll float64 `json:"fraction_of_bankroll"`
	FullKelly          float64 `json:"full_kelly"`
	DecimalOdds        float64 `json:"decimal_odds"`
	Amount             float64 `json:"amount"`
	Capped             bool    `json:"capped"`
}

// IsBet reports whether any stake is recommended
func (s StakeRecommendation) IsBet() bool {
	return s.FractionOfBankroll > 0
}
