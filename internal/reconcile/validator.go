// Package reconcile detects and repairs drift between pricing captured at
// order time and pricing recomputed from the current catalog.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nool-retail/backend-nool/internal/catalog"
	"github.com/nool-retail/backend-nool/internal/money"
	"github.com/nool-retail/backend-nool/internal/order"
	"github.com/nool-retail/backend-nool/internal/pricing"
)

// DefaultTolerance is the absolute amount under which stored and recomputed
// values are considered equal.
var DefaultTolerance = decimal.RequireFromString("0.01")

// ScopeOrder marks order-level discrepancies, as opposed to a line item id.
const ScopeOrder = "order"

// Kind classifies what a discrepancy refers to.
type Kind string

const (
	// KindItemTotal is drift between a stored and recomputed line total.
	KindItemTotal Kind = "item_total"
	// KindUnitPrice is an internal inconsistency between the stored unit price
	// and the stored line total divided by quantity.
	KindUnitPrice Kind = "unit_price"
	// KindSubtotal is drift between the stored and recomputed order subtotal.
	KindSubtotal Kind = "subtotal"
	// KindResolution marks items whose price could not be recomputed at all
	// (corrupt quantity, missing catalog entry).
	KindResolution Kind = "resolution"
)

// Discrepancy is one stored-vs-calculated mismatch.
type Discrepancy struct {
	Scope      string          `json:"scope"`
	Kind       Kind            `json:"kind"`
	Stored     decimal.Decimal `json:"stored"`
	Calculated decimal.Decimal `json:"calculated"`
	Diff       decimal.Decimal `json:"diff"`
	Detail     string          `json:"detail,omitempty"`
}

// Report is the outcome of validating one order. Discrepancies are stale but
// recomputable values; Errors are internal inconsistencies that block
// automatic repair and require manual review.
type Report struct {
	OrderID            string          `json:"orderId"`
	IsValid            bool            `json:"isValid"`
	Discrepancies      []Discrepancy   `json:"discrepancies"`
	Errors             []Discrepancy   `json:"errors"`
	Warnings           []string        `json:"warnings,omitempty"`
	CanAutoFix         bool            `json:"canAutoFix"`
	CalculatedSubtotal decimal.Decimal `json:"calculatedSubtotal"`
}

// Options adjusts validation behaviour.
type Options struct {
	// ActiveOnly excludes cancelled/returned line items from recomputation.
	// The default includes every row, since refund accounting lives elsewhere.
	ActiveOnly bool
}

// Validator recomputes an order's pricing and compares it against the stored
// values. It performs no writes.
type Validator struct {
	Catalog   catalog.Lookup
	Tolerance decimal.Decimal
}

func (v Validator) tolerance() decimal.Decimal {
	if v.Tolerance.IsZero() {
		return DefaultTolerance
	}
	return v.Tolerance
}

// Validate recomputes every considered line item via the price resolver and
// reports drift. Item totals outside tolerance become discrepancies; a stored
// unit price that disagrees with its own stored total is an error.
func (v Validator) Validate(ctx context.Context, o order.Order, opts Options) (Report, error) {
	if v.Catalog == nil {
		return Report{}, errors.New("reconcile: catalog lookup not configured")
	}
	tol := v.tolerance()
	report := Report{OrderID: o.ID}
	calculatedSubtotal := decimal.Zero

	for _, item := range o.Items {
		if opts.ActiveOnly && !item.Active() {
			continue
		}
		snap, err := v.Catalog.Snapshot(ctx, item.CatalogItemID)
		if err != nil {
			if errors.Is(err, catalog.ErrItemNotFound) {
				report.Errors = append(report.Errors, Discrepancy{
					Scope:  item.ID,
					Kind:   KindResolution,
					Detail: fmt.Sprintf("catalog item %s not found", item.CatalogItemID),
				})
				continue
			}
			return Report{}, fmt.Errorf("snapshot %s: %w", item.CatalogItemID, err)
		}
		resolved, err := pricing.Resolve(item, snap)
		if err != nil {
			report.Errors = append(report.Errors, Discrepancy{
				Scope:  item.ID,
				Kind:   KindResolution,
				Detail: err.Error(),
			})
			continue
		}
		report.Warnings = append(report.Warnings, resolved.Warnings...)
		calculatedSubtotal = calculatedSubtotal.Add(resolved.ItemTotal)

		if !money.Equal2(resolved.ItemTotal, item.ItemTotal, tol) {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Scope:      item.ID,
				Kind:       KindItemTotal,
				Stored:     item.ItemTotal,
				Calculated: resolved.ItemTotal,
				Diff:       resolved.ItemTotal.Sub(item.ItemTotal).Abs(),
			})
		}

		// The stored row must agree with itself regardless of catalog drift:
		// unit price times quantity is the stored total by construction.
		if item.Qty > 0 {
			impliedUnit := money.Round2(item.ItemTotal.Div(decimal.NewFromInt(int64(item.Qty))))
			if !money.Equal2(impliedUnit, item.UnitPrice, tol) {
				report.Errors = append(report.Errors, Discrepancy{
					Scope:      item.ID,
					Kind:       KindUnitPrice,
					Stored:     item.UnitPrice,
					Calculated: impliedUnit,
					Diff:       impliedUnit.Sub(item.UnitPrice).Abs(),
					Detail:     "stored unit price does not match stored item total",
				})
			}
		}
	}

	report.CalculatedSubtotal = money.Round2(calculatedSubtotal)
	if !money.Equal2(report.CalculatedSubtotal, o.Subtotal, tol) {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			Scope:      ScopeOrder,
			Kind:       KindSubtotal,
			Stored:     o.Subtotal,
			Calculated: report.CalculatedSubtotal,
			Diff:       report.CalculatedSubtotal.Sub(o.Subtotal).Abs(),
		})
	}

	report.IsValid = len(report.Discrepancies) == 0 && len(report.Errors) == 0
	report.CanAutoFix = len(report.Discrepancies) > 0 && len(report.Errors) == 0
	return report, nil
}
