package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nool-retail/backend-nool/internal/catalog"
)

// ErrOrderNotFound is returned when the order id does not exist.
var ErrOrderNotFound = errors.New("order: not found")

// Store reads and repairs order documents in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// Get loads one order with all its line items.
func (s *Store) Get(ctx context.Context, id string) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, errors.New("order: store not configured")
	}
	const orderQuery = `
SELECT id, subtotal::text, delivery_charge::text, grand_total::text, currency,
       pricing_fixed, created_at, updated_at
FROM orders
WHERE id = $1`

	var o Order
	var subtotal, delivery, grand string
	err := s.Pool.QueryRow(ctx, orderQuery, id).Scan(
		&o.ID, &subtotal, &delivery, &grand, &o.Currency,
		&o.PricingFixed, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return Order{}, fmt.Errorf("parse subtotal: %w", err)
	}
	if o.DeliveryCharge, err = decimal.NewFromString(delivery); err != nil {
		return Order{}, fmt.Errorf("parse delivery charge: %w", err)
	}
	if o.GrandTotal, err = decimal.NewFromString(grand); err != nil {
		return Order{}, fmt.Errorf("parse grand total: %w", err)
	}
	if o.Items, err = s.listItems(ctx, id); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Store) listItems(ctx context.Context, orderID string) ([]LineItem, error) {
	const itemQuery = `
SELECT id, catalog_item_id, kind, title, qty, size_label,
       size_adjusted_price::text, unit_price::text, item_total::text, status
FROM order_items
WHERE order_id = $1
ORDER BY created_at, id`

	rows, err := s.Pool.Query(ctx, itemQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var li LineItem
		var kind, status string
		var sizeAdjusted *string
		var unitPrice, itemTotal string
		if err := rows.Scan(&li.ID, &li.CatalogItemID, &kind, &li.Title, &li.Qty,
			&li.SizeLabel, &sizeAdjusted, &unitPrice, &itemTotal, &status); err != nil {
			return nil, err
		}
		li.Kind = catalog.Kind(kind)
		li.Status = LineItemStatus(status)
		if sizeAdjusted != nil {
			parsed, err := decimal.NewFromString(*sizeAdjusted)
			if err != nil {
				return nil, fmt.Errorf("parse size adjusted price: %w", err)
			}
			li.SizeAdjustedPrice = &parsed
		}
		if li.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		if li.ItemTotal, err = decimal.NewFromString(itemTotal); err != nil {
			return nil, fmt.Errorf("parse item total: %w", err)
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

// ListIDs pages order ids for batch audits using a keyset cursor. An empty
// cursor starts from the beginning; the last returned id is the next cursor.
func (s *Store) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("order: store not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	const query = `
SELECT id FROM orders
WHERE ($1 = '' OR id > $1::uuid)
ORDER BY id
LIMIT $2`

	rows, err := s.Pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list order ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RepairMeta records why a repair happened; it is written to the repair log in
// the same transaction as the totals.
type RepairMeta struct {
	OldSubtotal      decimal.Decimal
	DiscrepancyCount int
}

// ApplyRepair rewrites every item's unit price and total together with the
// order subtotal and grand total in a single transaction. The delivery charge
// is never touched. Either everything updates or nothing does.
func (s *Store) ApplyRepair(ctx context.Context, repaired Order, meta RepairMeta) error {
	if s == nil || s.Pool == nil {
		return errors.New("order: store not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, li := range repaired.Items {
		tag, err := tx.Exec(ctx, `
UPDATE order_items
SET unit_price = $1, item_total = $2
WHERE id = $3 AND order_id = $4`,
			li.UnitPrice.StringFixed(2), li.ItemTotal.StringFixed(2), li.ID, repaired.ID)
		if err != nil {
			return fmt.Errorf("update item %s: %w", li.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("update item %s: %w", li.ID, ErrOrderNotFound)
		}
	}

	tag, err := tx.Exec(ctx, `
UPDATE orders
SET subtotal = $1, grand_total = $2, pricing_fixed = TRUE, updated_at = now()
WHERE id = $3`,
		repaired.Subtotal.StringFixed(2), repaired.GrandTotal.StringFixed(2), repaired.ID)
	if err != nil {
		return fmt.Errorf("update order totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO repair_log (order_id, old_subtotal, new_subtotal, discrepancies)
VALUES ($1, $2, $3, $4)`,
		repaired.ID, meta.OldSubtotal.StringFixed(2), repaired.Subtotal.StringFixed(2), meta.DiscrepancyCount); err != nil {
		return fmt.Errorf("insert repair log: %w", err)
	}

	return tx.Commit(ctx)
}
