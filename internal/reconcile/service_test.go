package reconcile

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nool-retail/backend-nool/internal/order"
)

type memOrderStore struct {
	mu     sync.Mutex
	orders map[string]order.Order
}

func newMemOrderStore(orders ...order.Order) *memOrderStore {
	m := &memOrderStore{orders: map[string]order.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrderStore) Get(_ context.Context, id string) (order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return order.Order{}, order.ErrOrderNotFound
	}
	return o, nil
}

func (m *memOrderStore) ListIDs(_ context.Context, afterID string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.orders))
	for id := range m.orders {
		if afterID == "" || id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memOrderStore) ApplyRepair(_ context.Context, repaired order.Order, _ order.RepairMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[repaired.ID] = repaired
	return nil
}

type countingLocker struct {
	mu    sync.Mutex
	calls int
}

func (c *countingLocker) WithLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return fn(ctx)
}

func driftedOrder(id string) order.Order {
	o := consistentOrder()
	o.ID = id
	o.Items[0].UnitPrice = dec("850")
	o.Items[0].ItemTotal = dec("1700")
	o.Subtotal = dec("3199")
	return o
}

func erroredOrder(id string) order.Order {
	o := consistentOrder()
	o.ID = id
	o.Items[0].UnitPrice = dec("950")
	return o
}

func newTestService(store *memOrderStore) *Service {
	return &Service{
		Orders:  store,
		Catalog: testCatalog(),
		Logger:  zerolog.Nop(),
	}
}

func TestRepairOrderAcquiresLock(t *testing.T) {
	t.Parallel()
	store := newMemOrderStore(driftedOrder("ord-a"))
	locker := &countingLocker{}
	svc := newTestService(store)
	svc.Locker = locker

	repaired, report, err := svc.RepairOrder(context.Background(), "ord-a", Options{})
	require.NoError(t, err)
	require.True(t, report.CanAutoFix)
	require.True(t, dec("3299").Equal(repaired.Subtotal))
	require.Equal(t, 1, locker.calls)
}

func TestRepairOrderNotFound(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemOrderStore())
	_, _, err := svc.RepairOrder(context.Background(), "ord-missing", Options{})
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestAuditBatchCountsOutcomes(t *testing.T) {
	t.Parallel()
	ok1 := consistentOrder()
	ok1.ID = "ord-01"
	ok2 := consistentOrder()
	ok2.ID = "ord-02"
	store := newMemOrderStore(ok1, ok2, driftedOrder("ord-03"), erroredOrder("ord-04"))
	svc := newTestService(store)
	svc.Concurrency = 2

	result, err := svc.AuditBatch(context.Background(), "", 10, false, Options{})
	require.NoError(t, err)
	require.Equal(t, 4, result.Checked)
	require.Equal(t, 2, result.Valid)
	require.Equal(t, 1, result.Drifted)
	require.Equal(t, 1, result.Errored)
	require.Zero(t, result.Repaired)
	require.Equal(t, "ord-04", result.NextCursor)
	require.Len(t, result.Reports, 2, "only non-valid orders keep their reports")
}

func TestAuditBatchRepairsDriftedOrders(t *testing.T) {
	t.Parallel()
	store := newMemOrderStore(driftedOrder("ord-a"), erroredOrder("ord-b"))
	svc := newTestService(store)
	svc.Locker = &countingLocker{}

	result, err := svc.AuditBatch(context.Background(), "", 10, true, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Repaired)
	require.Equal(t, 1, result.Errored)

	fixed, err := store.Get(context.Background(), "ord-a")
	require.NoError(t, err)
	require.True(t, fixed.PricingFixed)
	require.True(t, dec("3299").Equal(fixed.Subtotal))

	// errored order untouched
	broken, err := store.Get(context.Background(), "ord-b")
	require.NoError(t, err)
	require.False(t, broken.PricingFixed)
}

func TestAuditBatchPagination(t *testing.T) {
	t.Parallel()
	store := newMemOrderStore()
	for _, id := range []string{"ord-1", "ord-2", "ord-3"} {
		o := consistentOrder()
		o.ID = id
		store.orders[id] = o
	}
	svc := newTestService(store)

	first, err := svc.AuditBatch(context.Background(), "", 2, false, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, first.Checked)
	require.Equal(t, "ord-2", first.NextCursor)

	second, err := svc.AuditBatch(context.Background(), first.NextCursor, 2, false, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, second.Checked)
	require.Equal(t, "ord-3", second.NextCursor)

	third, err := svc.AuditBatch(context.Background(), second.NextCursor, 2, false, Options{})
	require.NoError(t, err)
	require.Zero(t, third.Checked)
	require.Empty(t, third.NextCursor)
}
