package reconcile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/nool-retail/backend-nool/internal/common"
	"github.com/nool-retail/backend-nool/internal/order"
)

// Handler exposes order validation, repair and batch audits over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

func optionsFromQuery(r *http.Request) Options {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active_only"))
	return Options{ActiveOnly: activeOnly}
}

// ValidateOrder produces a read-only validation report for one order.
func (h *Handler) ValidateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "order id required", nil)
		return
	}
	report, err := h.Svc.ValidateOrder(r.Context(), orderID, optionsFromQuery(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

// RepairOrder recomputes and persists pricing for one drifted order.
func (h *Handler) RepairOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "order id required", nil)
		return
	}
	repaired, report, err := h.Svc.RepairOrder(r.Context(), orderID, optionsFromQuery(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"order":  repaired,
		"report": report,
	}})
}

// AuditInput is the request payload for a batch audit sweep.
type AuditInput struct {
	After  string `json:"after"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=500"`
	Repair bool   `json:"repair"`
}

// AuditBatch validates a page of orders and optionally repairs drifted ones.
func (h *Handler) AuditBatch(w http.ResponseWriter, r *http.Request) {
	var payload AuditInput
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
	if payload.Limit <= 0 {
		payload.Limit = 100
	}
	result, err := h.Svc.AuditBatch(r.Context(), payload.After, payload.Limit, payload.Repair, optionsFromQuery(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, ErrNotAutoFixable):
		common.JSONError(w, http.StatusConflict, "NOT_AUTO_FIXABLE", "order has internal pricing errors and needs manual review", nil)
	default:
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
