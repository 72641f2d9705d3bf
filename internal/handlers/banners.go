package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/upstream"
)

// BannersHandler serves the public top-page banner rotation. No session is
// required.
type BannersHandler struct {
	Gateway *upstream.Client
}

func (h *BannersHandler) List(c echo.Context) error {
	banners, err := h.Gateway.Banners(c.Request().Context())
	if err != nil {
		return respondUpstream(c, err, "failed to fetch banners")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": banners})
}
