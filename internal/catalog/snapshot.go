// Package catalog exposes immutable pricing reference data. A snapshot is
// captured once at the data-access boundary so the pricing resolver never
// probes the catalog for alternative shapes.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrItemNotFound is returned when neither a product nor a bundle exists for the id.
var ErrItemNotFound = errors.New("catalog: item not found")

// Kind discriminates between single products and fixed-price bundles.
type Kind string

const (
	// KindProduct is a single product with per-size variance and discounts.
	KindProduct Kind = "product"
	// KindBundle is a fixed-price bundle. Bundles carry no size variance and
	// are never discounted; their price is already final.
	KindBundle Kind = "bundle"
)

// SizeVariant is one entry of a product's variant list.
type SizeVariant struct {
	SizeLabel string          `json:"sizeLabel"`
	Price     decimal.Decimal `json:"price"`
}

// ItemSnapshot holds the reference data needed to price one line item,
// captured at lookup time. The pricing subsystem only reads it.
type ItemSnapshot struct {
	ID              string                     `json:"id"`
	Kind            Kind                       `json:"kind"`
	Title           string                     `json:"title"`
	BasePrice       decimal.Decimal            `json:"basePrice"`
	DiscountPercent decimal.Decimal            `json:"discountPercent"`
	SizePricing     map[string]decimal.Decimal `json:"sizePricing,omitempty"`
	Variants        []SizeVariant              `json:"variants,omitempty"`
}

// SizePrice returns the absolute size price for the label, if configured.
// Labels are matched on the lowercased trimmed form.
func (s ItemSnapshot) SizePrice(label string) (decimal.Decimal, bool) {
	if len(s.SizePricing) == 0 {
		return decimal.Decimal{}, false
	}
	price, ok := s.SizePricing[normalizeLabel(label)]
	return price, ok
}

// VariantPrice returns the price of the variant whose label matches
// case-insensitively, if any.
func (s ItemSnapshot) VariantPrice(label string) (decimal.Decimal, bool) {
	want := normalizeLabel(label)
	for _, v := range s.Variants {
		if normalizeLabel(v.SizeLabel) == want {
			return v.Price, true
		}
	}
	return decimal.Decimal{}, false
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Lookup fetches snapshots for order items. Implementations decide how the
// data is stored and cached.
type Lookup interface {
	Snapshot(ctx context.Context, itemID string) (ItemSnapshot, error)
}
