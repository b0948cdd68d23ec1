// Package pricing derives canonical unit prices and line totals for order
// items. Resolution is deterministic: the same item and snapshot always yield
// the same result, so later repairs reproduce order-time numbers exactly.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nool-retail/backend-nool/internal/catalog"
	"github.com/nool-retail/backend-nool/internal/money"
	"github.com/nool-retail/backend-nool/internal/order"
)

// ErrInvalidQuantity is returned for quantities below one. This indicates
// corrupt input and aborts the item's resolution with no partial result.
var ErrInvalidQuantity = errors.New("pricing: quantity must be at least 1")

// Resolved is the canonical price for one line item.
type Resolved struct {
	UnitPrice decimal.Decimal
	ItemTotal decimal.Decimal
	// Warnings records recoverable anomalies, such as an out-of-range catalog
	// discount that was ignored. The computation itself stays deterministic.
	Warnings []string
}

// Resolve derives the unit price and line total for one item. The unit price
// comes from the first matching rung, in order:
//
//  1. the item's stored size-adjusted price, when present and positive
//  2. the snapshot's absolute per-size price map
//  3. the snapshot's variant list, matched case-insensitively
//  4. the static size multiplier table applied to the base price
//  5. the plain base price
//
// Bundles skip size logic entirely and are never discounted; products have the
// snapshot's discount percent applied after the base unit price is resolved.
func Resolve(item order.LineItem, snap catalog.ItemSnapshot) (Resolved, error) {
	if item.Qty < 1 {
		return Resolved{}, fmt.Errorf("item %s qty %d: %w", item.ID, item.Qty, ErrInvalidQuantity)
	}

	if snap.Kind == catalog.KindBundle {
		unit := money.Round2(snap.BasePrice)
		return Resolved{
			UnitPrice: unit,
			ItemTotal: money.Round2(unit.Mul(decimal.NewFromInt(int64(item.Qty)))),
		}, nil
	}

	res := Resolved{UnitPrice: resolveProductUnit(item, snap)}

	discounted, err := money.ApplyDiscountPercent(res.UnitPrice, snap.DiscountPercent)
	if err != nil {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("catalog item %s: discount %s out of range, ignored", snap.ID, snap.DiscountPercent))
	} else {
		res.UnitPrice = discounted
	}

	res.UnitPrice = money.Round2(res.UnitPrice)
	res.ItemTotal = money.Round2(res.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
	return res, nil
}

func resolveProductUnit(item order.LineItem, snap catalog.ItemSnapshot) decimal.Decimal {
	if item.SizeAdjustedPrice != nil && item.SizeAdjustedPrice.IsPositive() {
		return *item.SizeAdjustedPrice
	}
	if item.SizeLabel != nil {
		size := *item.SizeLabel
		if price, ok := snap.SizePrice(size); ok {
			return price
		}
		if price, ok := snap.VariantPrice(size); ok {
			return price
		}
		if mult, ok := catalog.SizeMultiplier(size); ok {
			return money.Round2(snap.BasePrice.Mul(mult))
		}
	}
	return snap.BasePrice
}
