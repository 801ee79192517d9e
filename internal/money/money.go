// Package money handles currency amounts for the Monedero API.
//
// Amounts are stored and transmitted as int64 minor units so that repeated
// ledger arithmetic never accumulates floating-point drift. Display follows
// the Colombian peso convention: zero fractional digits and dot thousands
// grouping ("$ 1.234.567").
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of fractional digits kept internally per currency
// unit. Input amounts keep sub-unit precision; display rounds to whole units.
const MinorUnits = 2

var minorFactor = decimal.New(1, MinorUnits)

// Parse converts a decimal amount string ("12500", "12500.75", "12500,75")
// into minor units with half-up rounding past the stored precision.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return d.Mul(minorFactor).Round(0).IntPart(), nil
}

// FromUnits converts whole currency units to minor units.
func FromUnits(units int64) int64 {
	return decimal.New(units, 0).Mul(minorFactor).IntPart()
}

// ToUnits returns the whole-unit value of an amount in minor units, rounded
// half-up. This is the display precision.
func ToUnits(amount int64) int64 {
	return decimal.New(amount, -MinorUnits).Round(0).IntPart()
}

// Signed returns the balance delta for a positive magnitude: +amount for
// income, -amount otherwise.
func Signed(amount int64, income bool) int64 {
	if income {
		return amount
	}
	return -amount
}

// Magnitude returns the positive magnitude of a signed delta.
func Magnitude(delta int64) int64 {
	if delta < 0 {
		return -delta
	}
	return delta
}

// Format renders an amount in minor units as a display string with zero
// fractional digits and dot grouping, e.g. "$ 1.234.567". It is pure and
// never fails; use FormatUnits for values already in whole units.
func Format(amount int64) string {
	return FormatUnits(ToUnits(amount))
}

// FormatUnits renders a whole-unit value as "$ 1.234.567".
func FormatUnits(units int64) string {
	neg := units < 0
	if neg {
		units = -units
	}
	digits := fmt.Sprintf("%d", units)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$ " + b.String()
	}
	return "$ " + b.String()
}
