package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/middleware/session"
	"github.com/ponchomart/storefront/internal/upstream"
)

// OrdersHandler serves the mypage order history straight from the upstream.
// Orders only exist upstream, so a guest session has nothing to list.
type OrdersHandler struct {
	Gateway *upstream.Client
}

func (h *OrdersHandler) List(c echo.Context) error {
	orders, err := h.Gateway.OrderHistory(c.Request().Context(), session.SID(c))
	if err != nil {
		return respondUpstream(c, err, "failed to fetch orders")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": orders})
}
