package gateway

import (
	"log"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a decimal amount into integer minor units (cents),
// rounding half away from zero. Sub-cent residue is logged, never dropped silently.
func ToMinorUnits(amount decimal.Decimal) int64 {
	scaled := amount.Mul(hundred)
	rounded := scaled.Round(0)
	if !scaled.Equal(rounded) {
		log.Printf("Warning: amount %s has sub-minor-unit precision, rounded to %s", amount, rounded)
	}
	return rounded.IntPart()
}
