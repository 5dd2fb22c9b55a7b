package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"stripe-subscription-relay/internal/dto"
	"stripe-subscription-relay/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

func (h *SubscriptionHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "ok",
		Message:   "subscription relay running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *SubscriptionHandler) CreateSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	req.UserID = resolveUserID(c, req.UserID)

	result, err := h.subscriptionService.CreateSubscription(ctx, &req)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CancelSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	req.UserID = resolveUserID(c, req.UserID)

	if err := h.subscriptionService.CancelSubscription(ctx, req.UserID, req.SubscriptionID); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, dto.CancelSubscriptionResponse{
		Success: true,
		Message: "subscription will be cancelled at period end",
	})
}

func (h *SubscriptionHandler) ListPaymentMethods(c echo.Context) error {
	ctx := c.Request().Context()

	userID := resolveUserID(c, c.Param("userId"))

	methods, err := h.subscriptionService.ListPaymentMethods(ctx, userID)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ListPaymentMethodsResponse{
		Success:        true,
		PaymentMethods: methods,
	})
}

// resolveUserID prefers the authenticated identity over caller-supplied ids.
func resolveUserID(c echo.Context, fallback string) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return fallback
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, dto.ErrorResponse{Success: false, Error: message})
}
