// Package order holds the order document model and its Postgres store.
package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nool-retail/backend-nool/internal/catalog"
)

// LineItemStatus is the lifecycle state of one order row. Transitions happen
// only through explicit cancel/return operations elsewhere; reconciliation
// includes non-active rows unless the caller filters them out.
type LineItemStatus string

const (
	StatusActive        LineItemStatus = "active"
	StatusCancelPending LineItemStatus = "cancel_pending"
	StatusCancelled     LineItemStatus = "cancelled"
	StatusReturnPending LineItemStatus = "return_pending"
	StatusReturned      LineItemStatus = "returned"
)

// LineItem is one product-or-bundle row within an order.
type LineItem struct {
	ID            string       `json:"id"`
	CatalogItemID string       `json:"catalogItemId"`
	Kind          catalog.Kind `json:"kind"`
	Title         string       `json:"title"`
	Qty           int          `json:"qty"`
	SizeLabel     *string      `json:"sizeLabel,omitempty"`
	// SizeAdjustedPrice is a previously resolved per-size unit price stored on
	// the item itself. When present and positive it is authoritative.
	SizeAdjustedPrice *decimal.Decimal `json:"sizeAdjustedPrice,omitempty"`
	UnitPrice         decimal.Decimal  `json:"unitPrice"`
	ItemTotal         decimal.Decimal  `json:"itemTotal"`
	Status            LineItemStatus   `json:"status"`
}

// Active reports whether the row is in the active lifecycle state.
func (li LineItem) Active() bool {
	return li.Status == "" || li.Status == StatusActive
}

// Order is an ordered collection of line items plus totals.
// Invariant after any mutation: GrandTotal == Subtotal + DeliveryCharge and
// Subtotal == sum of ItemTotal over the considered rows.
type Order struct {
	ID             string          `json:"id"`
	Items          []LineItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	Currency       string          `json:"currency"`
	PricingFixed   bool            `json:"pricingFixed"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
