// Package delivery quotes shipping charges from road distance and order
// subtotal using a configurable tier table.
package delivery

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Tier charges a flat amount for distances up to MaxKm.
type Tier struct {
	MaxKm  float64
	Charge decimal.Decimal
}

// TierTable is an ordered list of distance tiers. Distances beyond the last
// tier pay the last tier's charge.
type TierTable []Tier

// ParseTiers parses "maxKm:charge" pairs from a comma-separated list. Tiers
// must be strictly ascending in distance and non-decreasing in charge.
func ParseTiers(s string) (TierTable, error) {
	parts := strings.Split(s, ",")
	table := make(TierTable, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("delivery: malformed tier %q", part)
		}
		maxKm, err := decimal.NewFromString(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, fmt.Errorf("delivery: tier distance %q: %w", kv[0], err)
		}
		charge, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("delivery: tier charge %q: %w", kv[1], err)
		}
		if charge.IsNegative() {
			return nil, fmt.Errorf("delivery: negative charge in tier %q", part)
		}
		table = append(table, Tier{MaxKm: maxKm.InexactFloat64(), Charge: charge})
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("delivery: empty tier table")
	}
	for i := 1; i < len(table); i++ {
		if table[i].MaxKm <= table[i-1].MaxKm {
			return nil, fmt.Errorf("delivery: tier distances must be ascending, got %v after %v",
				table[i].MaxKm, table[i-1].MaxKm)
		}
		if table[i].Charge.LessThan(table[i-1].Charge) {
			return nil, fmt.Errorf("delivery: tier charges must be non-decreasing, got %s after %s",
				table[i].Charge, table[i-1].Charge)
		}
	}
	return table, nil
}

// ChargeFor evaluates the table for a distance and subtotal. Subtotals at or
// above freeAbove ship free; freeAbove <= 0 disables the threshold.
func (t TierTable) ChargeFor(subtotal decimal.Decimal, distanceKm, freeAbove float64) decimal.Decimal {
	if len(t) == 0 {
		return decimal.Zero
	}
	if freeAbove > 0 && subtotal.GreaterThanOrEqual(decimal.NewFromFloat(freeAbove)) {
		return decimal.Zero
	}
	for _, tier := range t {
		if distanceKm <= tier.MaxKm {
			return tier.Charge
		}
	}
	return t[len(t)-1].Charge
}
