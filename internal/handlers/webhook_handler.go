package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/calebmoreno/storefront/internal/middleware"
	"github.com/calebmoreno/storefront/internal/payment"
	"github.com/calebmoreno/storefront/internal/webhook"
)

// WebhookHandler receives payment provider notifications.
type WebhookHandler struct {
	reconciler *webhook.Reconciler
	log        *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(reconciler *webhook.Reconciler, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		log:        log,
	}
}

// HandlePayment handles POST /webhooks/payment. The response code is the
// contract with the provider: 2xx stops retries, anything else triggers
// redelivery.
func (h *WebhookHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	var event webhook.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		// A malformed body will never become parseable on retry.
		h.log.Warn("malformed webhook body", "error", err)
		middleware.RecordWebhook("malformed")
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"}, h.log)
		return
	}

	if err := h.reconciler.Handle(r.Context(), event); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, payment.ErrProvider) {
			status = http.StatusBadGateway
		}

		h.log.Error("webhook reconciliation failed",
			"payment_id", event.Data.ID,
			"status", status,
			"error", err,
		)
		middleware.RecordWebhook("failed")
		WriteJSON(w, status, map[string]string{"status": "retry"}, h.log)
		return
	}

	middleware.RecordWebhook("ok")
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.log)
}
