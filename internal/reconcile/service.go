package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nool-retail/backend-nool/internal/catalog"
	"github.com/nool-retail/backend-nool/internal/obs"
	"github.com/nool-retail/backend-nool/internal/order"
)

// OrderStore is what the audit service needs from the order store.
type OrderStore interface {
	Get(ctx context.Context, id string) (order.Order, error)
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)
	ApplyRepair(ctx context.Context, repaired order.Order, meta order.RepairMeta) error
}

// Locker serialises repairs per order document.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Service coordinates single-order validation/repair and batch audits.
type Service struct {
	Orders      OrderStore
	Catalog     catalog.Lookup
	Locker      Locker
	Tolerance   decimal.Decimal
	Concurrency int
	Logger      zerolog.Logger
}

// ValidateOrder loads the order and produces a validation report.
func (s *Service) ValidateOrder(ctx context.Context, orderID string, opts Options) (Report, error) {
	if s == nil || s.Orders == nil {
		return Report{}, errors.New("reconcile: service not configured")
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return Report{}, err
	}
	report, err := Validator{Catalog: s.Catalog, Tolerance: s.Tolerance}.Validate(ctx, o, opts)
	if err != nil {
		return Report{}, err
	}
	s.observeReport(report)
	return report, nil
}

// RepairOrder repairs one order under its per-document lock.
func (s *Service) RepairOrder(ctx context.Context, orderID string, opts Options) (order.Order, Report, error) {
	if s == nil || s.Orders == nil {
		return order.Order{}, Report{}, errors.New("reconcile: service not configured")
	}
	var repaired order.Order
	var report Report
	run := func(ctx context.Context) error {
		o, err := s.Orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		repaired, report, err = Repairer{Catalog: s.Catalog, Store: s.Orders, Tolerance: s.Tolerance}.Repair(ctx, o, opts)
		return err
	}
	var err error
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, repairLockKey(orderID), run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		if obs.RepairsTotal != nil {
			obs.RepairsTotal.WithLabelValues("error").Inc()
		}
		return order.Order{}, report, err
	}
	result := "noop"
	if report.CanAutoFix {
		result = "repaired"
	}
	if obs.RepairsTotal != nil {
		obs.RepairsTotal.WithLabelValues(result).Inc()
	}
	s.Logger.Info().
		Str("order_id", orderID).
		Int("discrepancies", len(report.Discrepancies)).
		Str("result", result).
		Msg("order_repair")
	return repaired, report, nil
}

// BatchResult summarises one audit sweep over a page of orders.
type BatchResult struct {
	Checked    int      `json:"checked"`
	Valid      int      `json:"valid"`
	Drifted    int      `json:"drifted"`
	Errored    int      `json:"errored"`
	Repaired   int      `json:"repaired"`
	Failed     int      `json:"failed"`
	NextCursor string   `json:"nextCursor,omitempty"`
	Reports    []Report `json:"reports,omitempty"`
}

// AuditBatch validates a page of orders concurrently and optionally repairs
// the auto-fixable ones. Validation is read-only, so orders are processed
// independently; repairs still serialise per order through the locker.
func (s *Service) AuditBatch(ctx context.Context, afterID string, limit int, repair bool, opts Options) (BatchResult, error) {
	if s == nil || s.Orders == nil {
		return BatchResult{}, errors.New("reconcile: service not configured")
	}
	ids, err := s.Orders.ListIDs(ctx, afterID, limit)
	if err != nil {
		return BatchResult{}, err
	}
	result := BatchResult{}
	if len(ids) == 0 {
		return result, nil
	}
	result.NextCursor = ids[len(ids)-1]

	workers := s.Concurrency
	if workers <= 0 {
		workers = 4
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	idCh := make(chan string)
	outCh := make(chan auditOutcome, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idCh {
				outCh <- s.auditOne(ctx, id, repair, opts)
			}
		}()
	}

	go func() {
		defer close(idCh)
		for _, id := range ids {
			select {
			case <-ctx.Done():
				return
			case idCh <- id:
			}
		}
	}()

	wg.Wait()
	close(outCh)

	for out := range outCh {
		result.Checked++
		switch {
		case out.failed:
			result.Failed++
		case len(out.report.Errors) > 0:
			result.Errored++
		case len(out.report.Discrepancies) > 0:
			result.Drifted++
		default:
			result.Valid++
		}
		if out.repaired {
			result.Repaired++
		}
		if !out.report.IsValid && out.report.OrderID != "" {
			result.Reports = append(result.Reports, out.report)
		}
	}
	return result, ctx.Err()
}

type auditOutcome struct {
	report   Report
	repaired bool
	failed   bool
}

func (s *Service) auditOne(ctx context.Context, id string, repair bool, opts Options) (out auditOutcome) {
	report, err := s.ValidateOrder(ctx, id, opts)
	if err != nil {
		s.Logger.Error().Err(err).Str("order_id", id).Msg("audit_validate_failed")
		out.failed = true
		return out
	}
	out.report = report
	if repair && report.CanAutoFix {
		if _, _, err := s.RepairOrder(ctx, id, opts); err != nil {
			s.Logger.Error().Err(err).Str("order_id", id).Msg("audit_repair_failed")
			out.failed = true
			return out
		}
		out.repaired = true
	}
	return out
}

func (s *Service) observeReport(report Report) {
	if obs.AuditOrdersTotal == nil {
		return
	}
	switch {
	case len(report.Errors) > 0:
		obs.AuditOrdersTotal.WithLabelValues("error").Inc()
	case len(report.Discrepancies) > 0:
		obs.AuditOrdersTotal.WithLabelValues("drift").Inc()
	default:
		obs.AuditOrdersTotal.WithLabelValues("valid").Inc()
	}
}

func repairLockKey(orderID string) string {
	return "reconcile:repair:" + orderID
}
