package types

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxCents bounds every amount parsed from user input.
const MaxCents = math.MaxInt32

var maxCents = decimal.NewFromInt(MaxCents)

// FormatEuros renders integer cents as a two-decimal euro amount ("9.90").
func FormatEuros(cents int) string {
	return decimal.New(int64(cents), -2).StringFixed(2)
}

// EurosToCents converts a decimal euro amount to cents, rounding half away
// from zero. Negative amounts and amounts above MaxCents are rejected.
func EurosToCents(amount decimal.Decimal) (int, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount must be non-negative")
	}
	cents := amount.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("amount must not exceed %s", FormatEuros(MaxCents))
	}
	return int(cents.IntPart()), nil
}
