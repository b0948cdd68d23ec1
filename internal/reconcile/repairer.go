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

// ErrNotAutoFixable is returned when validation found internal errors, not
// just drift. Those orders need manual review and are never overwritten.
var ErrNotAutoFixable = errors.New("reconcile: order is not auto-fixable")

// RepairStore is the subset of the order store the repairer writes through.
type RepairStore interface {
	ApplyRepair(ctx context.Context, repaired order.Order, meta order.RepairMeta) error
}

// Repairer rewrites drifted pricing. It re-derives every value itself rather
// than trusting a caller-supplied report, so a catalog edit between validate
// and repair cannot smuggle stale numbers into the write.
type Repairer struct {
	Catalog   catalog.Lookup
	Store     RepairStore
	Tolerance decimal.Decimal
}

// Repair recomputes all item prices and totals and persists them atomically.
// The delivery charge is preserved; repair never touches shipping. A
// consistent order is a no-op and performs no write at all.
func (r Repairer) Repair(ctx context.Context, o order.Order, opts Options) (order.Order, Report, error) {
	if r.Store == nil {
		return order.Order{}, Report{}, errors.New("reconcile: repair store not configured")
	}
	validator := Validator{Catalog: r.Catalog, Tolerance: r.Tolerance}
	report, err := validator.Validate(ctx, o, opts)
	if err != nil {
		return order.Order{}, Report{}, err
	}
	if len(report.Errors) > 0 {
		return order.Order{}, report, fmt.Errorf("%w: %d validation errors", ErrNotAutoFixable, len(report.Errors))
	}
	if len(report.Discrepancies) == 0 {
		// Already consistent; repairing again must change nothing.
		return o, report, nil
	}

	repaired := o
	repaired.Items = make([]order.LineItem, len(o.Items))
	copy(repaired.Items, o.Items)

	subtotal := decimal.Zero
	for i, item := range repaired.Items {
		if opts.ActiveOnly && !item.Active() {
			continue
		}
		snap, err := r.Catalog.Snapshot(ctx, item.CatalogItemID)
		if err != nil {
			return order.Order{}, report, fmt.Errorf("snapshot %s: %w", item.CatalogItemID, err)
		}
		resolved, err := pricing.Resolve(item, snap)
		if err != nil {
			// Validate just passed, so a resolution failure here means the
			// order changed under us; surface it rather than half-writing.
			return order.Order{}, report, fmt.Errorf("resolve item %s: %w", item.ID, err)
		}
		repaired.Items[i].UnitPrice = resolved.UnitPrice
		repaired.Items[i].ItemTotal = resolved.ItemTotal
		subtotal = subtotal.Add(resolved.ItemTotal)
	}

	repaired.Subtotal = money.Round2(subtotal)
	repaired.GrandTotal = money.Round2(repaired.Subtotal.Add(repaired.DeliveryCharge))
	repaired.PricingFixed = true

	meta := order.RepairMeta{OldSubtotal: o.Subtotal, DiscrepancyCount: len(report.Discrepancies)}
	if err := r.Store.ApplyRepair(ctx, repaired, meta); err != nil {
		return order.Order{}, report, fmt.Errorf("apply repair: %w", err)
	}
	return repaired, report, nil
}
