package oddsmath

import (
	"fmt"
	"math"

	"github.com/yourusername/clever-picks/internal/models"
)

// ValidatePrice checks that an American price is usable. Prices strictly
// between -100 and +100 do not exist.
func ValidatePrice(american int) error {
	if american >= 100 || american <= -100 {
		return nil
	}
	return fmt.Errorf("%w: %d", models.ErrInvalidPrice, american)
}

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.667
func AmericanToDecimal(american int) (float64, error) {
	if err := ValidatePrice(american); err != nil {
		return 0, err
	}
	if american > 0 {
		return float64(american)/100.0 + 1.0, nil
	}
	return 100.0/float64(-american) + 1.0, nil
}

// DecimalToAmerican converts decimal odds back to the nearest American price
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %.4f: must be > 1.0", decimal)
	}
	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// ImpliedProbability converts an American price to its raw implied probability
// -110 → 0.5238
// +150 → 0.4000
func ImpliedProbability(american int) (float64, error) {
	if err := ValidatePrice(american); err != nil {
		return 0, err
	}
	if american < 0 {
		abs := float64(-american)
		return abs / (abs + 100.0), nil
	}
	return 100.0 / (float64(american) + 100.0), nil
}

// MustImpliedProbability is ImpliedProbability for prices already validated
// at the boundary. It panics on an invalid price.
func MustImpliedProbability(american int) float64 {
	p, err := ImpliedProbability(american)
	if err != nil {
		panic(err)
	}
	return p
}

// MustDecimal is AmericanToDecimal for prices already validated at the boundary
func MustDecimal(american int) float64 {
	d, err := AmericanToDecimal(american)
	if err != nil {
		panic(err)
	}
	return d
}
