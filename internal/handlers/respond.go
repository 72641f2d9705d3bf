package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/upstream"
)

// Every endpoint answers with a status field of "ok", "guest" or "error".
// "guest" tells the UI to fall back to local behavior instead of showing an
// error banner.
const (
	StatusOK    = "ok"
	StatusGuest = "guest"
	StatusError = "error"
)

func respondGuest(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"status":  StatusGuest,
		"message": "auth token is not set",
	})
}

func respondError(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{
		"status":  StatusError,
		"message": message,
	})
}

// respondUpstream maps a gateway error onto the internal contract:
// unauthenticated becomes "guest", upstream client rejections pass their
// message and status through, and everything else (upstream 5xx, transport
// failures) becomes a generic bad-gateway error.
func respondUpstream(c echo.Context, err error, fallback string) error {
	if upstream.IsUnauthenticated(err) {
		return respondGuest(c)
	}
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) && statusErr.ClientError() {
		msg := statusErr.Message
		if msg == "" {
			msg = fallback
		}
		return respondError(c, statusErr.Code, msg)
	}
	return respondError(c, http.StatusBadGateway, fallback)
}
