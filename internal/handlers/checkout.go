package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/checkout"
	"github.com/ponchomart/storefront/internal/logging"
	"github.com/ponchomart/storefront/internal/middleware/session"
	"github.com/ponchomart/storefront/internal/mykafka"
)

type CheckoutHandler struct {
	Orchestrator *checkout.Orchestrator
	Producer     *mykafka.Producer
}

func (h *CheckoutHandler) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout_confirm")

	var req checkout.Request
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}

	sid := session.SID(c)
	orderID, err := h.Orchestrator.Confirm(ctx, sid, req)
	if err != nil {
		var vErr *checkout.ValidationError
		if errors.As(err, &vErr) {
			return respondError(c, http.StatusBadRequest, fmt.Sprintf("%s: %s", vErr.Field, vErr.Message))
		}
		l.Warn("checkout_failed", "error", err)
		return respondUpstream(c, err, "checkout failed")
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(pubCtx, mykafka.TopicOrderEvents, sid, map[string]any{
		"type":     "order_placed",
		"order_id": orderID,
	}); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}

	l.Info("checkout_confirmed", "order_id", orderID)
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "order_id": orderID})
}
