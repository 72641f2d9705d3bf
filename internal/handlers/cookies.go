package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/credential"
	"github.com/ponchomart/storefront/internal/middleware/session"
)

const (
	sessionCookie         = "session_user"
	defaultDeliveryCookie = "default_delivery_address_id"
)

func CreateCookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return CreateCookie(name, "", path, time.Now().Add(-time.Hour))
}

// setCredentialCookies persists token state so a later request, possibly
// handled by another process, can rehydrate the cache.
func setCredentialCookies(c echo.Context, cred credential.Credential) {
	exp := time.Now().Add(session.CookieMaxAge)
	if cred.AccessToken != "" {
		c.SetCookie(CreateCookie(session.AccessTokenCookie, cred.AccessToken, "/", exp))
	}
	if cred.RefreshToken != "" {
		c.SetCookie(CreateCookie(session.RefreshTokenCookie, cred.RefreshToken, "/", exp))
	}
	if !cred.ExpiresAt.IsZero() {
		c.SetCookie(CreateCookie(session.ExpiresAtCookie, strconv.FormatInt(cred.ExpiresAt.UnixMilli(), 10), "/", exp))
	}
	if !cred.IssuedAt.IsZero() {
		c.SetCookie(CreateCookie(session.IssuedAtCookie, strconv.FormatInt(cred.IssuedAt.UnixMilli(), 10), "/", exp))
	}
}

func clearCredentialCookies(c echo.Context) {
	c.SetCookie(DeleteCookie(session.AccessTokenCookie, "/"))
	c.SetCookie(DeleteCookie(session.RefreshTokenCookie, "/"))
	c.SetCookie(DeleteCookie(session.ExpiresAtCookie, "/"))
	c.SetCookie(DeleteCookie(session.IssuedAtCookie, "/"))
	c.SetCookie(DeleteCookie(sessionCookie, "/"))
}
