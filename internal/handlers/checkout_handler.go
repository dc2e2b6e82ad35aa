package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/calebmoreno/storefront/internal/middleware"
	"github.com/calebmoreno/storefront/internal/models"
	"github.com/calebmoreno/storefront/internal/payment"
	"github.com/calebmoreno/storefront/internal/service"
)

// CheckoutHandler handles online and cash checkout requests.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	log      *slog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout *service.CheckoutService, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		log:      log,
	}
}

// CheckoutOnline handles POST /api/checkout. On success it returns the
// provider's hosted payment redirect URL; the order itself is created
// later by the webhook path.
func (h *CheckoutHandler) CheckoutOnline(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode checkout request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	url, err := h.checkout.CheckoutOnline(r.Context(), req)
	if err != nil {
		h.writeCheckoutError(w, "online", err)
		return
	}

	middleware.RecordCheckout("online", "success")
	WriteJSON(w, http.StatusOK, models.CheckoutResponse{URL: url}, h.log)
}

// CheckoutCash handles POST /api/orders/cash, registering a cash order
// synchronously.
func (h *CheckoutHandler) CheckoutCash(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode cash order request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	order, err := h.checkout.CheckoutCash(r.Context(), req)
	if err != nil {
		h.writeCheckoutError(w, "cash", err)
		return
	}

	middleware.RecordCheckout("cash", "success")
	WriteJSON(w, http.StatusOK, models.CashOrderResponse{Success: true, OrderID: order.ID}, h.log)
}

// writeCheckoutError maps checkout failures onto the error taxonomy:
// validation problems are the buyer's to fix, provider failures mean the
// buyer may retry with a fresh preference.
func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, method string, err error) {
	switch {
	case service.IsValidationError(err):
		h.log.Info("checkout rejected", "method", method, "reason", err)
		middleware.RecordCheckout(method, "rejected")
		WriteError(w, http.StatusBadRequest, err.Error(), h.log)
	case errors.Is(err, payment.ErrProvider):
		h.log.Error("payment provider failure", "method", method, "error", err)
		middleware.RecordCheckout(method, "provider_error")
		WriteError(w, http.StatusBadGateway, "Payment provider unavailable, please retry", h.log)
	default:
		h.log.Error("checkout failed", "method", method, "error", err)
		middleware.RecordCheckout(method, "error")
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
	}
}
