package reconcile

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nool-retail/backend-nool/internal/catalog"
	"github.com/nool-retail/backend-nool/internal/order"
)

type mapLookup map[string]catalog.ItemSnapshot

func (m mapLookup) Snapshot(_ context.Context, itemID string) (catalog.ItemSnapshot, error) {
	snap, ok := m[itemID]
	if !ok {
		return catalog.ItemSnapshot{}, catalog.ErrItemNotFound
	}
	return snap, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCatalog() mapLookup {
	return mapLookup{
		"tee-classic": {
			ID:              "tee-classic",
			Kind:            catalog.KindProduct,
			BasePrice:       dec("1000"),
			DiscountPercent: dec("10"),
		},
		"combo-3pack": {
			ID:        "combo-3pack",
			Kind:      catalog.KindBundle,
			BasePrice: dec("1499"),
		},
	}
}

func consistentOrder() order.Order {
	// tee-classic at 10% off: unit 900, qty 2 -> 1800; bundle 1499 -> 3299
	return order.Order{
		ID: "ord-1",
		Items: []order.LineItem{
			{ID: "li-1", CatalogItemID: "tee-classic", Kind: catalog.KindProduct, Qty: 2,
				UnitPrice: dec("900"), ItemTotal: dec("1800"), Status: order.StatusActive},
			{ID: "li-2", CatalogItemID: "combo-3pack", Kind: catalog.KindBundle, Qty: 1,
				UnitPrice: dec("1499"), ItemTotal: dec("1499"), Status: order.StatusActive},
		},
		Subtotal:       dec("3299"),
		DeliveryCharge: dec("49"),
		GrandTotal:     dec("3348"),
	}
}

func TestValidateConsistentOrder(t *testing.T) {
	t.Parallel()
	v := Validator{Catalog: testCatalog()}
	report, err := v.Validate(context.Background(), consistentOrder(), Options{})
	require.NoError(t, err)
	require.True(t, report.IsValid)
	require.False(t, report.CanAutoFix)
	require.Empty(t, report.Discrepancies)
	require.Empty(t, report.Errors)
	require.True(t, dec("3299").Equal(report.CalculatedSubtotal))
}

func TestValidateDetectsItemDrift(t *testing.T) {
	t.Parallel()
	o := consistentOrder()
	// catalog edited after the order was placed: stored totals are stale
	o.Items[0].UnitPrice = dec("850")
	o.Items[0].ItemTotal = dec("1700")
	o.Subtotal = dec("3199")

	v := Validator{Catalog: testCatalog()}
	report, err := v.Validate(context.Background(), o, Options{})
	require.NoError(t, err)
	require.False(t, report.IsValid)
	require.True(t, report.CanAutoFix)
	require.Empty(t, report.Errors)

	// one item-level plus one order-level discrepancy
	require.Len(t, report.Discrepancies, 2)
	require.Equal(t, KindItemTotal, report.Discrepancies[0].Kind)
	require.Equal(t, "li-1", report.Discrepancies[0].Scope)
	require.True(t, dec("100").Equal(report.Discrepancies[0].Diff))
	require.Equal(t, KindSubtotal, report.Discrepancies[1].Kind)
	require.Equal(t, ScopeOrder, report.Discrepancies[1].Scope)
}

func TestValidateUnitPriceMismatchIsError(t *testing.T) {
	t.Parallel()
	o := consistentOrder()
	// stored row disagrees with itself: 950 * 2 != 1800
	o.Items[0].UnitPrice = dec("950")

	v := Validator{Catalog: testCatalog()}
	report, err := v.Validate(context.Background(), o, Options{})
	require.NoError(t, err)
	require.False(t, report.IsValid)
	require.False(t, report.CanAutoFix, "internal inconsistency must block auto-fix")
	require.Len(t, report.Errors, 1)
	require.Equal(t, KindUnitPrice, report.Errors[0].Kind)
}

func TestValidateWithinToleranceIsValid(t *testing.T) {
	t.Parallel()
	o := consistentOrder()
	o.Items[0].ItemTotal = dec("1800.01")
	o.Subtotal = dec("3299.01")

	v := Validator{Catalog: testCatalog()}
	report, err := v.Validate(context.Background(), o, Options{})
	require.NoError(t, err)
	require.True(t, report.IsValid)
}

func TestValidateMissingCatalogItem(t *testing.T) {
	t.Parallel()
	o := consistentOrder()
	o.Items[0].CatalogItemID = "deleted-item"

	v := Validator{Catalog: testCatalog()}
	report, err := v.Validate(context.Background(), o, Options{})
	require.NoError(t, err)
	require.False(t, report.CanAutoFix)
	require.Len(t, report.Errors, 1)
	require.Equal(t, KindResolution, report.Errors[0].Kind)
}

func TestValidateActiveOnlySkipsCancelledRows(t *testing.T) {
	t.Parallel()
	o := consistentOrder()
	o.Items[1].Status = order.StatusCancelled
	o.Subtotal = dec("1800")

	v := Validator{Catalog: testCatalog()}
	report, err := v.Validate(context.Background(), o, Options{ActiveOnly: true})
	require.NoError(t, err)
	require.True(t, report.IsValid)
	require.True(t, dec("1800").Equal(report.CalculatedSubtotal))
}

func TestValidateManyDriftedItems(t *testing.T) {
	t.Parallel()
	lookup := mapLookup{}
	o := order.Order{ID: "ord-bulk"}
	for i := 0; i < 300; i++ {
		id := "sku-" + decimal.NewFromInt(int64(i)).String()
		lookup[id] = catalog.ItemSnapshot{ID: id, Kind: catalog.KindProduct, BasePrice: dec("100")}
		o.Items = append(o.Items, order.LineItem{
			ID: "li-" + id, CatalogItemID: id, Kind: catalog.KindProduct, Qty: 1,
			UnitPrice: dec("90"), ItemTotal: dec("90"), Status: order.StatusActive,
		})
	}
	o.Subtotal = dec("27000")

	v := Validator{Catalog: lookup}
	report, err := v.Validate(context.Background(), o, Options{})
	require.NoError(t, err)
	// 300 item discrepancies plus the subtotal one
	require.Len(t, report.Discrepancies, 301)
	require.Empty(t, report.Errors)
	require.True(t, report.CanAutoFix)
}
