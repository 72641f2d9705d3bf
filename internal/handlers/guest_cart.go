package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/guestcart"
	"github.com/ponchomart/storefront/internal/middleware/session"
)

// GuestCartHandler manages the pre-authentication cart. Lines live only in
// process memory for the current guest session; reconciliation drains them
// into the upstream cart after login.
type GuestCartHandler struct {
	Guest *guestcart.Store
}

func (h *GuestCartHandler) Get(c echo.Context) error {
	lines := h.Guest.Lines(session.SID(c))
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": lines})
}

func (h *GuestCartHandler) Add(c echo.Context) error {
	var line guestcart.Line
	if err := c.Bind(&line); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	if line.ProductID == "" {
		return respondError(c, http.StatusBadRequest, "product_id is required")
	}
	if line.Slug == "" {
		line.Slug = line.ProductID
	}
	lines := h.Guest.Add(session.SID(c), line)
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": lines})
}

func (h *GuestCartHandler) SetQuantity(c echo.Context) error {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == "" {
		return respondError(c, http.StatusBadRequest, "product_id is required")
	}
	lines := h.Guest.SetQuantity(session.SID(c), req.ProductID, req.Quantity)
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": lines})
}

// Delete removes one line when product_id is given, or the whole cart.
func (h *GuestCartHandler) Delete(c echo.Context) error {
	sid := session.SID(c)
	if productID := c.QueryParam("product_id"); productID != "" {
		lines := h.Guest.Remove(sid, productID)
		return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": lines})
	}
	h.Guest.Clear(sid)
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": []guestcart.Line{}})
}
