package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/payment"
	"tickethub/internal/services"
	"tickethub/internal/status"
)

// WebhookHandler receives raw provider notifications. The body is verified
// against its signature before anything is parsed; a bad signature is a 400
// and is never retried here. Everything past verification is acknowledged,
// processing failures included, because the provider's redelivery would just
// replay an event our idempotent reconciler already handles.
type WebhookHandler struct {
	provider payment.Provider
	webhooks *services.WebhookService
}

func NewWebhookHandler(provider payment.Provider, webhooks *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{provider: provider, webhooks: webhooks}
}

func (h *WebhookHandler) HandlePaymentWebhook(e *core.RequestEvent) error {
	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return apis.NewBadRequestError("Failed to read request body", err)
	}

	event, err := h.provider.ConstructWebhookEvent(body, e.Request.Header.Get("SignedHash"))
	if err != nil {
		if errors.Is(err, status.ErrInvalidSignature) {
			return apis.NewBadRequestError("Invalid webhook signature", nil)
		}
		return apis.NewBadRequestError("Malformed webhook payload", nil)
	}

	if err := h.webhooks.HandleEvent(e.Request.Context(), event); err != nil {
		slog.Error("webhook processing failed",
			"type", event.Type,
			"session_id", event.SessionID,
			"error", err,
		)
	}

	return e.JSON(http.StatusOK, map[string]bool{"received": true})
}
