// Package money provides fixed-point helpers for order pricing. All amounts
// are decimal values with two fractional digits (INR).
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidDiscount is returned when a discount percentage falls outside [0,100].
// Callers treat it as "no discount" and log a warning rather than failing the item.
var ErrInvalidDiscount = errors.New("money: discount percent out of range")

var (
	oneHundred = decimal.NewFromInt(100)
)

// Round2 rounds to two decimal places using round-half-up.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// ClampZero returns zero for negative amounts, v otherwise.
func ClampZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// ApplyDiscountPercent reduces base by pct percent, rounded to two decimals and
// clamped to zero. pct outside [0,100] yields ErrInvalidDiscount and the
// unmodified base so the caller can degrade to an undiscounted price.
func ApplyDiscountPercent(base, pct decimal.Decimal) (decimal.Decimal, error) {
	if pct.IsNegative() || pct.GreaterThan(oneHundred) {
		return base, ErrInvalidDiscount
	}
	factor := decimal.NewFromInt(1).Sub(pct.Div(oneHundred))
	return ClampZero(Round2(base.Mul(factor))), nil
}

// Equal2 reports whether two amounts match within the reconciliation tolerance.
func Equal2(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
