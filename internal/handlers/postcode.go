package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/logging"
	"github.com/ponchomart/storefront/internal/postal"
)

// PostcodeHandler resolves Japanese postal codes into address fields. The
// lookup fills only what the form has not already filled; existing values
// ride in as query params and win over empty lookup fields.
type PostcodeHandler struct {
	Postal *postal.Client
}

func (h *PostcodeHandler) Lookup(c echo.Context) error {
	ctx := c.Request().Context()

	zip := postal.NormalizeZip(c.QueryParam("zip"))
	if len(zip) < 3 {
		return respondError(c, http.StatusBadRequest, "zip must have at least 3 digits")
	}
	if !h.Postal.Configured() {
		return respondError(c, http.StatusServiceUnavailable, "postal lookup is not configured")
	}

	existing := postal.Result{
		Zip:        zip,
		Prefecture: c.QueryParam("prefecture"),
		City:       c.QueryParam("city"),
		Town:       c.QueryParam("town"),
	}

	result, err := h.Postal.Lookup(ctx, zip)
	if err != nil {
		if errors.Is(err, postal.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "address not found")
		}
		logging.FromContext(ctx).Warn("postal lookup failed", "error", err, "zip", zip)
		return respondError(c, http.StatusBadGateway, "postal lookup failed")
	}

	merged := postal.Merge(existing, *result)
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "address": merged})
}
