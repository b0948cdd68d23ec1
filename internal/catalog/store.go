package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store resolves snapshots from Postgres, optionally fronted by a Redis cache.
// An item id is looked up as a product first and as a bundle second.
type Store struct {
	pool  *pgxpool.Pool
	cache *Cache
}

// NewStore constructs a snapshot store.
func NewStore(pool *pgxpool.Pool, cache *Cache) *Store {
	return &Store{pool: pool, cache: cache}
}

// Snapshot implements Lookup.
func (s *Store) Snapshot(ctx context.Context, itemID string) (ItemSnapshot, error) {
	if s == nil || s.pool == nil {
		return ItemSnapshot{}, errors.New("catalog: store not configured")
	}
	key := snapshotCacheKey(itemID)
	if s.cache != nil {
		var cached ItemSnapshot
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}
	snap, err := s.loadProduct(ctx, itemID)
	if errors.Is(err, pgx.ErrNoRows) {
		snap, err = s.loadBundle(ctx, itemID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ItemSnapshot{}, ErrItemNotFound
		}
	}
	if err != nil {
		return ItemSnapshot{}, err
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, snap)
	}
	return snap, nil
}

func (s *Store) loadProduct(ctx context.Context, itemID string) (ItemSnapshot, error) {
	const query = `
SELECT id, title, base_price::text, COALESCE(discount_pct, 0)::text
FROM products
WHERE id = $1`

	var snap ItemSnapshot
	var basePrice, discount string
	err := s.pool.QueryRow(ctx, query, itemID).Scan(&snap.ID, &snap.Title, &basePrice, &discount)
	if err != nil {
		return ItemSnapshot{}, err
	}
	snap.Kind = KindProduct
	if snap.BasePrice, err = decimal.NewFromString(basePrice); err != nil {
		return ItemSnapshot{}, fmt.Errorf("parse base price: %w", err)
	}
	if snap.DiscountPercent, err = decimal.NewFromString(discount); err != nil {
		return ItemSnapshot{}, fmt.Errorf("parse discount: %w", err)
	}
	if snap.SizePricing, err = s.loadSizePrices(ctx, itemID); err != nil {
		return ItemSnapshot{}, err
	}
	if snap.Variants, err = s.loadVariants(ctx, itemID); err != nil {
		return ItemSnapshot{}, err
	}
	return snap, nil
}

func (s *Store) loadBundle(ctx context.Context, itemID string) (ItemSnapshot, error) {
	const query = `
SELECT id, title, price::text
FROM bundles
WHERE id = $1`

	var snap ItemSnapshot
	var price string
	err := s.pool.QueryRow(ctx, query, itemID).Scan(&snap.ID, &snap.Title, &price)
	if err != nil {
		return ItemSnapshot{}, err
	}
	snap.Kind = KindBundle
	if snap.BasePrice, err = decimal.NewFromString(price); err != nil {
		return ItemSnapshot{}, fmt.Errorf("parse bundle price: %w", err)
	}
	return snap, nil
}

func (s *Store) loadSizePrices(ctx context.Context, productID string) (map[string]decimal.Decimal, error) {
	const query = `
SELECT lower(size_label), price::text
FROM product_size_prices
WHERE product_id = $1`

	rows, err := s.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list size prices: %w", err)
	}
	defer rows.Close()

	pricing := map[string]decimal.Decimal{}
	for rows.Next() {
		var label, raw string
		if err := rows.Scan(&label, &raw); err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parse size price %q: %w", label, err)
		}
		pricing[label] = price
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(pricing) == 0 {
		return nil, nil
	}
	return pricing, nil
}

func (s *Store) loadVariants(ctx context.Context, productID string) ([]SizeVariant, error) {
	const query = `
SELECT size_label, price::text
FROM product_variants
WHERE product_id = $1
ORDER BY size_label`

	rows, err := s.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []SizeVariant
	for rows.Next() {
		var v SizeVariant
		var raw string
		if err := rows.Scan(&v.SizeLabel, &raw); err != nil {
			return nil, err
		}
		if v.Price, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("parse variant price %q: %w", v.SizeLabel, err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func snapshotCacheKey(itemID string) string {
	return "catalog:snapshot:" + itemID
}
