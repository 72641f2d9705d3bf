package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/localstore"
	"github.com/ponchomart/storefront/internal/logging"
	"github.com/ponchomart/storefront/internal/middleware/session"
	"github.com/ponchomart/storefront/internal/models"
	"github.com/ponchomart/storefront/internal/mykafka"
	"github.com/ponchomart/storefront/internal/upstream"
)

// CartHandler proxies the authenticated upstream cart. The upstream owns cart
// state; successful reads are mirrored into the fallback table so a transport
// outage degrades to the last known snapshot instead of an error.
type CartHandler struct {
	Gateway   *upstream.Client
	Producer  *mykafka.Producer
	Local     *localstore.Store
	JWTSecret []byte
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicCartEvents, session.SID(c), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CartHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	user, hasUser := SessionUserFromCookie(c, h.JWTSecret)

	cart, err := h.Gateway.Cart(ctx, session.SID(c))
	if err != nil {
		var netErr *upstream.NetworkError
		if errors.As(err, &netErr) && hasUser && h.Local != nil {
			if items, lerr := h.Local.CartItemsByUser(user.LoginID); lerr == nil && len(items) > 0 {
				return c.JSON(http.StatusOK, echo.Map{
					"status": StatusOK,
					"items":  items,
					"total":  fallbackTotal(items),
				})
			}
		}
		return respondUpstream(c, err, "failed to fetch cart")
	}

	if hasUser && h.Local != nil {
		snapshot := make([]models.FallbackCartItem, len(cart.Lines))
		for i, line := range cart.Lines {
			snapshot[i] = models.FallbackCartItem{
				ProductID: line.ProductID,
				Name:      line.Name,
				Price:     line.Price,
				Quantity:  line.Quantity,
			}
		}
		if err := h.Local.ReplaceCartItems(user.LoginID, snapshot); err != nil {
			logging.FromContext(ctx).Warn("cart snapshot failed", "error", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": StatusOK,
		"items":  cart.Lines,
		"total":  cart.Total,
	})
}

func fallbackTotal(items []models.FallbackCartItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (h *CartHandler) Add(c echo.Context) error {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == "" {
		return respondError(c, http.StatusBadRequest, "product_id is required")
	}
	if err := h.Gateway.AddItem(c.Request().Context(), session.SID(c), req.ProductID); err != nil {
		return respondUpstream(c, err, "failed to add to cart")
	}
	h.publish(c, map[string]any{"type": "cart_item_added", "product_id": req.ProductID})
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK})
}

func (h *CartHandler) SetQuantity(c echo.Context) error {
	var req struct {
		OrderItemID string `json:"order_item_id"`
		Quantity    *int   `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	if req.OrderItemID == "" || req.Quantity == nil {
		return respondError(c, http.StatusBadRequest, "order_item_id and quantity are required")
	}
	if err := h.Gateway.SetQuantity(c.Request().Context(), session.SID(c), req.OrderItemID, *req.Quantity); err != nil {
		return respondUpstream(c, err, "failed to update cart")
	}
	h.publish(c, map[string]any{
		"type":          "cart_quantity_changed",
		"order_item_id": req.OrderItemID,
		"quantity":      *req.Quantity,
	})
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK})
}

func (h *CartHandler) AssignAddress(c echo.Context) error {
	var req struct {
		AddressID string `json:"address_id"`
		Type      string `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	if req.AddressID == "" || (req.Type != upstream.KindDelivery && req.Type != upstream.KindBill) {
		return respondError(c, http.StatusBadRequest, "address_id and type are required")
	}
	if err := h.Gateway.AssignAddress(c.Request().Context(), session.SID(c), req.AddressID, req.Type); err != nil {
		return respondUpstream(c, err, "failed to update cart address")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK})
}

func (h *CartHandler) Clear(c echo.Context) error {
	if err := h.Gateway.ClearCart(c.Request().Context(), session.SID(c)); err != nil {
		return respondUpstream(c, err, "failed to clear cart")
	}
	h.publish(c, map[string]any{"type": "cart_cleared"})
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK})
}
