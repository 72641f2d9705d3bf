// Package session ties a browser to a session id and rehydrates the
// credential cache from cookie state on every request. The id doubles as the
// guest-cart key and the credential-cache key, so a guest who logs in keeps
// the same session identity.
package session

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/credential"
)

const (
	SIDCookie          = "guest_session"
	AccessTokenCookie  = "external_access_token"
	RefreshTokenCookie = "external_refresh_token"
	ExpiresAtCookie    = "external_token_expires_at"
	IssuedAtCookie     = "external_token_issued_at"

	CookieMaxAge = 7 * 24 * time.Hour
)

const sidContextKey = "session_id"

type Middleware struct {
	Creds *credential.Store
}

// Hydrate ensures the session id cookie exists and pushes cookie-carried
// token state into the credential cache before the handler runs.
func (m *Middleware) Hydrate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sid := ""
		if cookie, err := c.Cookie(SIDCookie); err == nil && cookie.Value != "" {
			sid = cookie.Value
		} else {
			sid = uuid.NewString()
			c.SetCookie(&http.Cookie{
				Name:     SIDCookie,
				Value:    sid,
				Path:     "/",
				Expires:  time.Now().Add(CookieMaxAge),
				HttpOnly: true,
				Secure:   true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(sidContextKey, sid)

		if cred := CredentialFromCookies(c); !cred.Empty() {
			m.Creds.Hydrate(sid, cred)
		}
		return next(c)
	}
}

// SID returns the request's session id.
func SID(c echo.Context) string {
	if v, ok := c.Get(sidContextKey).(string); ok {
		return v
	}
	if cookie, err := c.Cookie(SIDCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// CredentialFromCookies rebuilds credential state from the four token
// cookies. Unparseable timestamps are dropped rather than erroring; the
// credential store treats the result as hydration input only.
func CredentialFromCookies(c echo.Context) credential.Credential {
	cred := credential.Credential{}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		cred.AccessToken = cookie.Value
	}
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
		cred.RefreshToken = cookie.Value
	}
	if cookie, err := c.Cookie(ExpiresAtCookie); err == nil {
		if ms, err := strconv.ParseInt(cookie.Value, 10, 64); err == nil {
			cred.ExpiresAt = time.UnixMilli(ms)
		}
	}
	if cookie, err := c.Cookie(IssuedAtCookie); err == nil {
		if ms, err := strconv.ParseInt(cookie.Value, 10, 64); err == nil {
			cred.IssuedAt = time.UnixMilli(ms)
		}
	}
	return cred
}
