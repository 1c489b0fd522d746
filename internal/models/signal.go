package models

import "time"

// SignalState is a tri-state market signal. UNKNOWN means the detector
// abstained for lack of coverage; it is never equivalent to NO.
type SignalState string

const (
	SignalYes     SignalState = "YES"
	SignalNo      SignalState = "NO"
	SignalUnknown SignalState = "UNKNOWN"
)

// SharpStrength grades the size of a sharp/square divergence
type SharpStrength string

const (
	SharpStrengthNone     SharpStrength = ""
	SharpStrengthMild     SharpStrength = "mild"
	SharpStrengthModerate SharpStrength = "moderate"
	SharpStrengthStrong   SharpStrength = "strong"
)

// DirectedSignal is a signal state plus the side it points at when YES
type DirectedSignal struct {
	State SignalState `json:"state"`
	Side  Side        `json:"side,omitempty"`
}

// Unknown builds an abstaining signal
func Unknown() DirectedSignal {
	return DirectedSignal{State: SignalUnknown}
}

// Favors reports whether the signal fired toward the given side
func (d DirectedSignal) Favors(side Side) bool {
	return d.State == SignalYes && d.Side == side
}

// SignalBundle holds derived market-structure signals for one game market.
// It is recomputed from quotes on demand and only ever cached.
type SignalBundle struct {
	GameID              string         `json:"game_id"`
	Market              MarketType     `json:"market"`
	SharpDivergence     *float64       `json:"sharp_divergence,omitempty"`
	SharpAction         DirectedSignal `json:"sharp_action"`
	SharpStrength       SharpStrength  `json:"sharp_strength,omitempty"`
	Steam               DirectedSignal `json:"steam"`
	ReverseLineMovement DirectedSignal `json:"reverse_line_movement"`
	PublicPct           *float64       `json:"public_pct,omitempty"`
	WeatherImpact       float64        `json:"weather_impact"`
	InjuryImpact        float64        `json:"injury_impact"`
	ComputedAt          time.Time      `json:"computed_at"`
}

// PublicOn returns the public percentage backing the given side
func (b SignalBundle) PublicOn(side Side) (float64, bool) {
	if b.PublicPct == nil {
		return 0, false
	}
	if side.IsReference(b.Market) {
		return *b.PublicPct, true
	}
	return 100 - *b.PublicPct, true
}
