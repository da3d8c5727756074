package money

import "github.com/shopspring/decimal"

const (
	// MinAmount is one cent, the smallest positive stored amount.
	MinAmount = 0.01
	// MaxAmount is the largest value a NUMERIC(14,2) column holds.
	MaxAmount = 999_999_999_999.99
)

// Round returns a rounded half away from zero to whole cents, the precision
// amounts are stored with.
func Round(a float64) float64 {
	return decimal.NewFromFloat(a).Round(2).InexactFloat64()
}
