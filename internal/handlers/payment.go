package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/localstore"
	"github.com/ponchomart/storefront/internal/models"
)

// PaymentHandler manages the locally stored payment-method book. Card data
// never reaches the upstream; the full number is reduced to brand plus last
// four digits before it touches the database.
type PaymentHandler struct {
	Local     *localstore.Store
	JWTSecret []byte
}

func (h *PaymentHandler) user(c echo.Context) (string, bool) {
	user, ok := SessionUserFromCookie(c, h.JWTSecret)
	if !ok {
		return "", false
	}
	return user.LoginID, true
}

type paymentForm struct {
	Nickname   string `json:"nickname"`
	Brand      string `json:"brand"`
	CardNumber string `json:"card_number"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	IsDefault  bool   `json:"is_default"`
}

func last4(cardNumber string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cardNumber)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

func (h *PaymentHandler) List(c echo.Context) error {
	userID, ok := h.user(c)
	if !ok {
		return respondGuest(c)
	}
	payments, err := h.Local.PaymentsByUser(userID)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "failed to fetch payment methods")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": payments})
}

func (h *PaymentHandler) Create(c echo.Context) error {
	userID, ok := h.user(c)
	if !ok {
		return respondGuest(c)
	}
	var form paymentForm
	if err := c.Bind(&form); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	tail := last4(form.CardNumber)
	if tail == "" {
		return respondError(c, http.StatusBadRequest, "card_number is required")
	}
	if form.ExpMonth < 1 || form.ExpMonth > 12 {
		return respondError(c, http.StatusBadRequest, "exp_month is invalid")
	}
	payment := models.PaymentMethod{
		UserID:    userID,
		Nickname:  form.Nickname,
		Brand:     form.Brand,
		Last4:     tail,
		ExpMonth:  form.ExpMonth,
		ExpYear:   form.ExpYear,
		IsDefault: form.IsDefault,
	}
	if err := h.Local.InsertPayment(&payment); err != nil {
		return respondError(c, http.StatusInternalServerError, "failed to save payment method")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "item": payment})
}

func (h *PaymentHandler) Update(c echo.Context) error {
	userID, ok := h.user(c)
	if !ok {
		return respondGuest(c)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid payment id")
	}
	var form paymentForm
	if err := c.Bind(&form); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	payment := models.PaymentMethod{
		ID:        uint(id),
		UserID:    userID,
		Nickname:  form.Nickname,
		Brand:     form.Brand,
		ExpMonth:  form.ExpMonth,
		ExpYear:   form.ExpYear,
		IsDefault: form.IsDefault,
	}
	if tail := last4(form.CardNumber); tail != "" {
		payment.Last4 = tail
	}
	if err := h.Local.UpdatePayment(&payment); err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "payment method not found")
		}
		return respondError(c, http.StatusInternalServerError, "failed to update payment method")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK})
}

func (h *PaymentHandler) Delete(c echo.Context) error {
	userID, ok := h.user(c)
	if !ok {
		return respondGuest(c)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid payment id")
	}
	if err := h.Local.DeletePayment(userID, uint(id)); err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "payment method not found")
		}
		return respondError(c, http.StatusInternalServerError, "failed to delete payment method")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK})
}
