package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v82"

	"rez_app_echo/internal/services"
)

// maxWebhookBody caps the payload read from the provider
const maxWebhookBody = int64(65536)

// EventProcessor handles verified payment events
type EventProcessor interface {
	Handle(ctx context.Context, event stripe.Event) services.EventResult
}

// WebhookHandler receives payment provider callbacks
type WebhookHandler struct {
	verifier  services.EventVerifier
	processor EventProcessor
}

func NewWebhookHandler(verifier services.EventVerifier, processor EventProcessor) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, processor: processor}
}

// StripeWebhook verifies the signature over the raw body and applies the event
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read request body"})
	}

	event, err := h.verifier.ConstructEvent(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result := h.processor.Handle(c.Request().Context(), event)
	if !result.Acknowledge() {
		// a non-2xx answer makes the provider redeliver
		msg := "Failed to process event"
		if result.Err != nil {
			msg = result.Err.Error()
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": msg})
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
