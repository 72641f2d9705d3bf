package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/localstore"
	"github.com/ponchomart/storefront/internal/logging"
)

// AccountHandler serves the signed-in user's profile. The identity comes from
// the session cookie; the profile row lives in the local store for accounts
// registered here, while accounts that only exist upstream are read-only.
type AccountHandler struct {
	Local     *localstore.Store
	JWTSecret []byte
}

func (h *AccountHandler) Get(c echo.Context) error {
	user, ok := SessionUserFromCookie(c, h.JWTSecret)
	if !ok {
		return respondGuest(c)
	}

	stored, err := h.Local.UserByLoginID(user.LoginID)
	if err == nil {
		user = SessionUser{LoginID: stored.LoginID, Name: stored.Name, Email: stored.Email}
	} else if !errors.Is(err, localstore.ErrNotFound) {
		logging.FromContext(c.Request().Context()).Error("account lookup failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "user": user})
}

func (h *AccountHandler) Update(c echo.Context) error {
	user, ok := SessionUserFromCookie(c, h.JWTSecret)
	if !ok {
		return respondGuest(c)
	}

	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		LoginID string `json:"login_id"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	loginID := strings.TrimSpace(req.LoginID)
	if name == "" || email == "" || loginID == "" {
		return respondError(c, http.StatusBadRequest, "name, email and login id are required")
	}

	stored, err := h.Local.UserByLoginID(user.LoginID)
	if errors.Is(err, localstore.ErrNotFound) {
		return respondError(c, http.StatusBadRequest, "account is managed upstream and cannot be updated here")
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("account lookup failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	stored.Name = name
	stored.Email = email
	stored.LoginID = loginID
	if err := h.Local.UpdateUser(stored); err != nil {
		logging.FromContext(c.Request().Context()).Error("account update failed", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	updated := SessionUser{LoginID: loginID, Name: name, Email: email}
	if err := writeSessionCookie(c, h.JWTSecret, updated); err != nil {
		return respondError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "user": updated})
}
