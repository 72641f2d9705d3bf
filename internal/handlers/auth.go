package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/credential"
	"github.com/ponchomart/storefront/internal/hash"
	"github.com/ponchomart/storefront/internal/localstore"
	"github.com/ponchomart/storefront/internal/logging"
	"github.com/ponchomart/storefront/internal/middleware/session"
	"github.com/ponchomart/storefront/internal/models"
	"github.com/ponchomart/storefront/internal/mykafka"
	"github.com/ponchomart/storefront/internal/reconcile"
)

type AuthHandler struct {
	Creds      *credential.Store
	Local      *localstore.Store
	Reconciler *reconcile.Engine
	Producer   *mykafka.Producer
	JWTSecret  []byte
}

// SessionUser is the identity carried by the signed session cookie. Only
// display data lives here; the bearer credential rides in its own cookies.
type SessionUser struct {
	LoginID string `json:"login_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

func displayName(identifier string) string {
	if at := strings.Index(identifier, "@"); at > 0 {
		return identifier[:at]
	}
	return identifier
}

// writeSessionCookie signs the identity into the session cookie. Profile
// updates reuse it so the cookie never lags the stored account.
func writeSessionCookie(c echo.Context, secret []byte, user SessionUser) error {
	exp := time.Now().Add(session.CookieMaxAge)
	claims := jwt.MapClaims{
		"sub":   user.LoginID,
		"name":  user.Name,
		"email": user.Email,
		"exp":   exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return err
	}
	c.SetCookie(CreateCookie(sessionCookie, signed, "/", exp))
	return nil
}

func (h *AuthHandler) setSessionCookie(c echo.Context, user SessionUser) error {
	return writeSessionCookie(c, h.JWTSecret, user)
}

// SessionUserFromCookie validates the session cookie and returns the identity
// it carries.
func SessionUserFromCookie(c echo.Context, secret []byte) (SessionUser, bool) {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return SessionUser{}, false
	}
	token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return SessionUser{}, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return SessionUser{}, false
	}
	user := SessionUser{}
	user.LoginID, _ = claims["sub"].(string)
	user.Name, _ = claims["name"].(string)
	user.Email, _ = claims["email"].(string)
	return user, user.LoginID != ""
}

// runReconcile merges the guest cart after a credential change. A failure is
// logged and does not fail the login; the guest cart stays put and the next
// attempt retries from scratch.
func (h *AuthHandler) runReconcile(ctx context.Context, sid string) {
	if err := h.Reconciler.Run(ctx, sid); err != nil {
		logging.FromContext(ctx).Warn("guest cart reconciliation failed", "error", err, "sid", sid)
	}
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicUserEvents, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		LoginID  string `json:"login_id"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	identifier := strings.TrimSpace(req.LoginID)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "login id and password are required")
	}

	sid := session.SID(c)
	cred, err := h.Creds.Login(ctx, sid, identifier, req.Password)
	if err != nil {
		l.Warn("login_failed", "error", err)
		return respondError(c, http.StatusUnauthorized, "authentication failed")
	}

	user := SessionUser{
		LoginID: identifier,
		Name:    displayName(identifier),
	}
	if strings.Contains(identifier, "@") {
		user.Email = identifier
	}
	if err := h.setSessionCookie(c, user); err != nil {
		return respondError(c, http.StatusInternalServerError, "internal error")
	}
	setCredentialCookies(c, cred)

	h.runReconcile(ctx, sid)

	h.publish(c, identifier, map[string]any{
		"type":     "user_logged_in",
		"login_id": identifier,
	})

	l.Info("login_success")
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "user": user})
}

func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req struct {
		Email    string `json:"email"`
		LoginID  string `json:"login_id"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	email := strings.TrimSpace(req.Email)
	loginID := strings.TrimSpace(req.LoginID)
	if loginID == "" {
		loginID = email
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = displayName(email)
	}
	if email == "" || req.Password == "" || loginID == "" {
		return respondError(c, http.StatusBadRequest, "email and password are required")
	}

	if _, err := h.Local.UserByLoginID(loginID); err == nil {
		return respondError(c, http.StatusConflict, "user already exists")
	} else if !errors.Is(err, localstore.ErrNotFound) {
		l.Error("signup_failed", "reason", "db_error", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "internal error")
	}
	user := models.User{
		Name:         name,
		Email:        email,
		LoginID:      loginID,
		PasswordHash: pwHash,
	}
	if err := h.Local.InsertUser(&user); err != nil {
		l.Error("signup_failed", "reason", "db_error", "error", err)
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	sid := session.SID(c)
	sessionUser := SessionUser{LoginID: loginID, Name: name, Email: email}

	// The upstream issues credentials for new accounts through the same
	// password-style grant as login.
	cred, err := h.Creds.Login(ctx, sid, loginID, req.Password)
	if err != nil {
		l.Warn("signup_token_failed", "error", err)
		if err := h.setSessionCookie(c, sessionUser); err != nil {
			return respondError(c, http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "user": sessionUser})
	}

	if err := h.setSessionCookie(c, sessionUser); err != nil {
		return respondError(c, http.StatusInternalServerError, "internal error")
	}
	setCredentialCookies(c, cred)

	h.runReconcile(ctx, sid)

	h.publish(c, loginID, map[string]any{
		"type":     "user_registered",
		"login_id": loginID,
		"user_id":  user.ID,
	})

	l.Info("signup_success")
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "user": sessionUser})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	sid := session.SID(c)
	h.Creds.Clear(sid)
	clearCredentialCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK})
}

// Refresh revalidates the cookie-carried credential, refreshing it when near
// expiry, and re-sets the cookies. The body distinguishes "guest" (no token
// material at all) from "expired" (material present but unusable).
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	sid := session.SID(c)

	cred := session.CredentialFromCookies(c)
	if cred.Empty() {
		return c.JSON(http.StatusOK, echo.Map{"status": StatusGuest})
	}

	if _, ok := h.Creds.AccessToken(ctx, sid); !ok {
		return c.JSON(http.StatusOK, echo.Map{"status": "expired"})
	}
	if fresh, ok := h.Creds.Peek(sid); ok {
		setCredentialCookies(c, fresh)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK})
}

func (h *AuthHandler) Session(c echo.Context) error {
	user, ok := SessionUserFromCookie(c, h.JWTSecret)
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"status": StatusGuest})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "user": user})
}
