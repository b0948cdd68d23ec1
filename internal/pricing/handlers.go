package pricing

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/nool-retail/backend-nool/internal/catalog"
	"github.com/nool-retail/backend-nool/internal/common"
	"github.com/nool-retail/backend-nool/internal/order"
)

// Handler exposes ad-hoc price resolution over HTTP, mainly for backoffice
// tooling that wants to preview what the resolver would charge.
type Handler struct {
	Catalog  catalog.Lookup
	Validate *validator.Validate
}

// ResolveInput describes one line item to price.
type ResolveInput struct {
	ItemID            string           `json:"item_id" validate:"required"`
	Qty               int              `json:"qty" validate:"required,min=1"`
	SizeLabel         *string          `json:"size_label"`
	SizeAdjustedPrice *decimal.Decimal `json:"size_adjusted_price"`
}

// ResolvePrice computes the canonical unit price and line total for an item.
func (h *Handler) ResolvePrice(w http.ResponseWriter, r *http.Request) {
	var payload ResolveInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
	}

	snap, err := h.Catalog.Snapshot(r.Context(), payload.ItemID)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "catalog item not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog lookup failed", nil)
		return
	}

	item := order.LineItem{
		CatalogItemID:     payload.ItemID,
		Kind:              snap.Kind,
		Qty:               payload.Qty,
		SizeLabel:         payload.SizeLabel,
		SizeAdjustedPrice: payload.SizeAdjustedPrice,
	}
	resolved, err := Resolve(item, snap)
	if err != nil {
		if errors.Is(err, ErrInvalidQuantity) {
			common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "price resolution failed", nil)
		return
	}

	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"item_id":    payload.ItemID,
		"unit_price": resolved.UnitPrice,
		"item_total": resolved.ItemTotal,
		"warnings":   resolved.Warnings,
	}})
}
