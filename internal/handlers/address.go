package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/localstore"
	"github.com/ponchomart/storefront/internal/logging"
	"github.com/ponchomart/storefront/internal/middleware/session"
	"github.com/ponchomart/storefront/internal/models"
	"github.com/ponchomart/storefront/internal/upstream"
)

// AddressHandler proxies the upstream address book. The upstream has no
// default flag, so the chosen delivery default is remembered in a cookie and
// reapplied onto the listing. Listings are mirrored into the fallback table,
// which answers reads during a transport outage.
type AddressHandler struct {
	Gateway   *upstream.Client
	Local     *localstore.Store
	JWTSecret []byte
}

// applyDefault marks exactly one default on a non-empty listing: the
// remembered id when it is still present, else the first entry. The resolved
// id is returned so the caller can write it back to the cookie when it moved.
func applyDefault(remembered string, list []upstream.Address) (string, []upstream.Address) {
	if len(list) == 0 {
		return "", list
	}
	idx := 0
	for i := range list {
		if remembered != "" && list[i].ID == remembered {
			idx = i
			break
		}
	}
	list[idx].IsDefault = true
	return list[idx].ID, list
}

func rememberedDefault(c echo.Context) string {
	if cookie, err := c.Cookie(defaultDeliveryCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func rememberDefault(c echo.Context, remembered, resolved string) {
	if resolved == "" || resolved == remembered {
		return
	}
	exp := time.Now().Add(session.CookieMaxAge)
	c.SetCookie(CreateCookie(defaultDeliveryCookie, resolved, "/", exp))
}

func (h *AddressHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	kind := upstream.PickKind(c.QueryParam("type"))
	user, hasUser := SessionUserFromCookie(c, h.JWTSecret)

	list, err := h.Gateway.Addresses(ctx, session.SID(c), kind)
	if err != nil {
		var netErr *upstream.NetworkError
		if errors.As(err, &netErr) && hasUser && h.Local != nil {
			if fallback, lerr := h.Local.AddressesByUser(user.LoginID); lerr == nil && len(fallback) > 0 {
				return c.JSON(http.StatusOK, echo.Map{
					"status": StatusOK,
					"items":  filterFallback(fallback, kind),
				})
			}
		}
		return respondUpstream(c, err, "failed to fetch addresses")
	}

	h.snapshot(c, user.LoginID, hasUser, kind, list)

	remembered := rememberedDefault(c)
	resolved, list := applyDefault(remembered, list)
	rememberDefault(c, remembered, resolved)
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": list})
}

func filterFallback(addrs []models.FallbackAddress, kind string) []models.FallbackAddress {
	out := make([]models.FallbackAddress, 0, len(addrs))
	for _, a := range addrs {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func (h *AddressHandler) snapshot(c echo.Context, userID string, hasUser bool, kind string, list []upstream.Address) {
	if !hasUser || h.Local == nil {
		return
	}
	mirror := make([]models.FallbackAddress, len(list))
	for i, addr := range list {
		mirror[i] = models.FallbackAddress{
			Kind:          kind,
			LastName:      addr.LastName,
			FirstName:     addr.FirstName,
			LastNameKana:  addr.LastNameKana,
			FirstNameKana: addr.FirstNameKana,
			PostalCode:    addr.PostalCode,
			Prefecture:    addr.Prefecture,
			City:          addr.City,
			Building:      addr.Building,
			Phone:         addr.Phone,
			Email:         addr.Email,
		}
	}
	if err := h.Local.ReplaceAddresses(userID, kind, mirror); err != nil {
		logging.FromContext(c.Request().Context()).Warn("address snapshot failed", "error", err)
	}
}

// Upsert serves both create (no id) and edit (id present). The upstream does
// not echo the stored record, so the listing is refreshed and the affected
// record located in it before answering.
func (h *AddressHandler) Upsert(c echo.Context) error {
	ctx := c.Request().Context()

	var form upstream.AddressForm
	if err := c.Bind(&form); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}
	if form.LastName == "" || form.FirstName == "" || form.PostalCode == "" {
		return respondError(c, http.StatusBadRequest, "name and postal code are required")
	}
	form.Kind = upstream.PickKind(form.Kind)

	sid := session.SID(c)
	if err := h.Gateway.UpsertAddress(ctx, sid, form); err != nil {
		return respondUpstream(c, err, "failed to save address")
	}

	list, err := h.Gateway.Addresses(ctx, sid, form.Kind)
	if err != nil {
		return respondUpstream(c, err, "failed to fetch addresses")
	}

	user, hasUser := SessionUserFromCookie(c, h.JWTSecret)
	h.snapshot(c, user.LoginID, hasUser, form.Kind, list)

	saved := locateSaved(list, form)
	remembered := rememberedDefault(c)
	if form.IsDefault && saved != "" {
		remembered = saved
	}
	resolved, list := applyDefault(remembered, list)
	rememberDefault(c, rememberedDefault(c), resolved)

	return c.JSON(http.StatusOK, echo.Map{
		"status": StatusOK,
		"id":     saved,
		"items":  list,
	})
}

// locateSaved finds the record the upsert produced. Edits keep their id;
// creates are matched by field comparison, newest entries first.
func locateSaved(list []upstream.Address, form upstream.AddressForm) string {
	if form.ID != "" {
		return form.ID
	}
	for i := len(list) - 1; i >= 0; i-- {
		addr := list[i]
		if addr.LastName == form.LastName &&
			addr.FirstName == form.FirstName &&
			addr.PostalCode == form.PostalCode &&
			addr.Locality() == form.Locality() {
			return addr.ID
		}
	}
	if len(list) > 0 {
		return list[len(list)-1].ID
	}
	return ""
}
