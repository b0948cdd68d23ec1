package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nool-retail/backend-nool/internal/order"
)

type recordingStore struct {
	applied []order.Order
	metas   []order.RepairMeta
	err     error
}

func (r *recordingStore) ApplyRepair(_ context.Context, repaired order.Order, meta order.RepairMeta) error {
	if r.err != nil {
		return r.err
	}
	r.applied = append(r.applied, repaired)
	r.metas = append(r.metas, meta)
	return nil
}

func TestRepairRewritesDriftedOrder(t *testing.T) {
	t.Parallel()
	o := consistentOrder()
	o.Items[0].UnitPrice = dec("850")
	o.Items[0].ItemTotal = dec("1700")
	o.Subtotal = dec("3199")
	o.GrandTotal = dec("3248")

	store := &recordingStore{}
	repaired, report, err := Repairer{Catalog: testCatalog(), Store: store}.Repair(context.Background(), o, Options{})
	require.NoError(t, err)
	require.True(t, report.CanAutoFix)
	require.Len(t, store.applied, 1)

	require.True(t, dec("900").Equal(repaired.Items[0].UnitPrice))
	require.True(t, dec("1800").Equal(repaired.Items[0].ItemTotal))
	require.True(t, dec("3299").Equal(repaired.Subtotal))
	// delivery charge is preserved, grand total re-derived from it
	require.True(t, dec("49").Equal(repaired.DeliveryCharge))
	require.True(t, dec("3348").Equal(repaired.GrandTotal))
	require.True(t, repaired.PricingFixed)

	require.True(t, dec("3199").Equal(store.metas[0].OldSubtotal))
	require.Equal(t, 2, store.metas[0].DiscrepancyCount)
}

func TestRepairConsistentOrderIsNoop(t *testing.T) {
	t.Parallel()
	store := &recordingStore{}
	o := consistentOrder()
	repaired, report, err := Repairer{Catalog: testCatalog(), Store: store}.Repair(context.Background(), o, Options{})
	require.NoError(t, err)
	require.True(t, report.IsValid)
	require.Empty(t, store.applied, "no-op repair must not write")
	require.False(t, repaired.PricingFixed)
}

func TestRepairRefusesInternalErrors(t *testing.T) {
	t.Parallel()
	o := consistentOrder()
	o.Items[0].UnitPrice = dec("950") // disagrees with stored total

	store := &recordingStore{}
	_, report, err := Repairer{Catalog: testCatalog(), Store: store}.Repair(context.Background(), o, Options{})
	require.ErrorIs(t, err, ErrNotAutoFixable)
	require.NotEmpty(t, report.Errors)
	require.Empty(t, store.applied)
}

func TestRepairThenValidateRoundTrip(t *testing.T) {
	t.Parallel()
	o := consistentOrder()
	o.Items[0].UnitPrice = dec("850")
	o.Items[0].ItemTotal = dec("1700")
	o.Subtotal = dec("3199")

	store := &recordingStore{}
	repaired, _, err := Repairer{Catalog: testCatalog(), Store: store}.Repair(context.Background(), o, Options{})
	require.NoError(t, err)

	report, err := Validator{Catalog: testCatalog()}.Validate(context.Background(), repaired, Options{})
	require.NoError(t, err)
	require.True(t, report.IsValid, "a repaired order must validate clean")

	// repairing again changes nothing and performs no second write
	again, _, err := Repairer{Catalog: testCatalog(), Store: store}.Repair(context.Background(), repaired, Options{})
	require.NoError(t, err)
	require.Len(t, store.applied, 1)
	require.True(t, repaired.Subtotal.Equal(again.Subtotal))
}
