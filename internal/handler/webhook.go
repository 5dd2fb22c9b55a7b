package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"stripe-subscription-relay/internal/dto"
	"stripe-subscription-relay/internal/service"
)

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// HandleWebhook passes the unparsed request body through for signature
// verification. A non-2xx response makes Stripe redeliver, so only genuine
// processing failures are reported as errors.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "failed to read request body")
	}

	sigHeader := c.Request().Header.Get("Stripe-Signature")
	if err := h.webhookService.HandleEvent(ctx, body, sigHeader); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, dto.WebhookAck{Received: true})
}
