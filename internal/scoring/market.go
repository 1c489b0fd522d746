package scoring

import (
	"github.com/yourusername/clever-picks/internal/models"
)

// Market component increments, one per signal, signed by direction
const (
	sharpMildScore     = 0.02
	sharpModerateScore = 0.03
	sharpStrongScore   = 0.04
	rlmScore           = 0.03
	steamScore         = 0.04
)

// MarketComponent scores the market-structure signals plus weather and
// injury impacts for one side. UNKNOWN signals contribute nothing.
func MarketComponent(b *models.SignalBundle, side models.Side) float64 {
	if b == nil {
		return 0
	}
	score := 0.0

	score += directed(b.SharpAction, side, sharpScore(b.SharpStrength))
	score += directed(b.ReverseLineMovement, side, rlmScore)
	score += directed(b.Steam, side, steamScore)

	impact := b.WeatherImpact + b.InjuryImpact
	if side.IsReference(b.Market) {
		score += impact
	} else {
		score -= impact
	}
	return score
}

func directed(sig models.DirectedSignal, side models.Side, weight float64) float64 {
	if sig.State != models.SignalYes {
		return 0
	}
	if sig.Side == side {
		return weight
	}
	return -weight
}

func sharpScore(strength models.SharpStrength) float64 {
	switch strength {
	case models.SharpStrengthStrong:
		return sharpStrongScore
	case models.SharpStrengthModerate:
		return sharpModerateScore
	}
	return sharpMildScore
}
