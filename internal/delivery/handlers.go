package delivery

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/nool-retail/backend-nool/internal/common"
)

// Handler exposes delivery quoting over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// QuoteInput is the request payload for a delivery quote.
type QuoteInput struct {
	City     string          `json:"city" validate:"required,max=120"`
	Subtotal decimal.Decimal `json:"subtotal" validate:"required"`
}

// QuoteHandler prices delivery for a destination city and order subtotal.
func (h *Handler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "delivery service not configured", nil)
		return
	}
	var payload QuoteInput
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
	if payload.Subtotal.IsNegative() {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "subtotal must not be negative", nil)
		return
	}

	quote := h.Svc.Quote(r.Context(), payload.City, payload.Subtotal)
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}
