package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// Dispatcher processes a decoded webhook batch
type Dispatcher interface {
	Dispatch(ctx context.Context, events []webhook.EventInterface)
}

// WebhookHandler receives LINE callbacks. The signature is checked by middleware
// before this runs; everything that reaches here is acknowledged with 200.
type WebhookHandler struct {
	dispatcher Dispatcher
	log        *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(d Dispatcher, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{dispatcher: d, log: log}
}

// Handle decodes the callback and dispatches its events in order
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusOK).SendString("OK")
	}

	// same bytes the signature was checked against
	var req webhook.CallbackRequest
	if err := json.Unmarshal(c.BodyRaw(), &req); err != nil {
		// LINE redelivers on non-2xx, and a bad body will not get better
		h.log.Warn("webhook.bad_body", slog.String("err", err.Error()))
		return c.SendStatus(fiber.StatusOK)
	}
	if len(req.Events) == 0 {
		// the console's "Verify" button sends an empty batch
		return c.SendStatus(fiber.StatusOK)
	}

	h.log.Info("webhook.received",
		slog.String("destination", req.Destination),
		slog.Int("events", len(req.Events)),
	)
	h.dispatcher.Dispatch(c.UserContext(), req.Events)
	return c.SendStatus(fiber.StatusOK)
}
