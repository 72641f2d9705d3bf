package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

const (
	KindDelivery = "delivery"
	KindBill     = "bill"
)

// PickKind clamps an address-kind string to one of the two upstream types.
func PickKind(v string) string {
	switch strings.ToLower(v) {
	case KindBill:
		return KindBill
	default:
		return KindDelivery
	}
}

// Address is the normalized view of an upstream address record. The upstream
// stores city, town and street collapsed into one field; City carries that
// combined value and Town/Street stay empty on reads.
type Address struct {
	ID            string `json:"id"`
	Kind          string `json:"type"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	FirstNameKana string `json:"first_name_kana"`
	LastNameKana  string `json:"last_name_kana"`
	Gender        string `json:"gender"`
	DateOfBirth   string `json:"date_of_birth"`
	PostalCode    string `json:"postal_code"`
	Prefecture    string `json:"prefecture"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Street        string `json:"street"`
	Building      string `json:"building"`
	Room          string `json:"room"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	IsDefault     bool   `json:"is_default"`
}

// Locality is the combined city/town/street value, comparable between a
// submitted form and a record read back from the upstream.
func (a Address) Locality() string {
	return a.City + a.Town + a.Street
}

// AddressForm carries the fields the UI submits for create and edit. Create
// and edit hit the same upsert endpoint; they differ only in whether ID is
// already known.
type AddressForm struct {
	ID            string `json:"id"`
	Kind          string `json:"type"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	FirstNameKana string `json:"first_name_kana"`
	LastNameKana  string `json:"last_name_kana"`
	Gender        string `json:"gender"`
	DateOfBirth   string `json:"date_of_birth"`
	PostalCode    string `json:"postal_code"`
	Prefecture    string `json:"prefecture"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Street        string `json:"street"`
	Building      string `json:"building"`
	Room          string `json:"room"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	IsDefault     bool   `json:"is_default"`
}

func (f AddressForm) Locality() string {
	return f.City + f.Town + f.Street
}

type rawAddress struct {
	AddressID       flexString `json:"address_id"`
	Type            string     `json:"type"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	KanaFirstName   string     `json:"kana_first_name"`
	KanaLastName    string     `json:"kana_last_name"`
	Gender          string     `json:"gender"`
	DateOfBirth     string     `json:"date_of_birth"`
	PostCode        string     `json:"post_code"`
	Prefecture      string     `json:"prefecture"`
	CityTownVillage string     `json:"city_town_village"`
	AddressDetails  string     `json:"address_details"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email"`
}

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

func normalizeDate(v string) string {
	if v == "" {
		return ""
	}
	if m := datePrefix.FindString(v); m != "" {
		return m
	}
	return v
}

// Addresses lists the caller's addresses of one kind. The upstream returns
// all kinds mixed under one endpoint; filtering happens here.
func (c *Client) Addresses(ctx context.Context, sid, kind string) ([]Address, error) {
	auth, err := c.authHeader(ctx, sid)
	if err != nil {
		return nil, err
	}
	env, err := c.do(ctx, http.MethodGet, c.cartBase+"/u/address", auth, nil)
	if err != nil {
		return nil, err
	}

	var raw []rawAddress
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &raw); err != nil {
			return nil, &NetworkError{Op: "decode addresses", Err: err}
		}
	}

	kind = PickKind(kind)
	out := make([]Address, 0, len(raw))
	for _, r := range raw {
		if PickKind(r.Type) != kind || r.AddressID.String() == "" {
			continue
		}
		out = append(out, Address{
			ID:            r.AddressID.String(),
			Kind:          kind,
			FirstName:     r.FirstName,
			LastName:      r.LastName,
			FirstNameKana: r.KanaFirstName,
			LastNameKana:  r.KanaLastName,
			Gender:        r.Gender,
			DateOfBirth:   normalizeDate(r.DateOfBirth),
			PostalCode:    r.PostCode,
			Prefecture:    r.Prefecture,
			City:          r.CityTownVillage,
			Building:      r.AddressDetails,
			Phone:         r.Phone,
			Email:         r.Email,
		})
	}
	return out, nil
}

// UpsertAddress creates or edits an address through the upstream's single
// update endpoint. The upstream does not echo the record back; create-then-
// locate callers re-list afterwards.
func (c *Client) UpsertAddress(ctx context.Context, sid string, form AddressForm) error {
	auth, err := c.authHeader(ctx, sid)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"last_name":         form.LastName,
		"first_name":        form.FirstName,
		"kana_last_name":    form.LastNameKana,
		"kana_first_name":   form.FirstNameKana,
		"phone":             form.Phone,
		"email":             form.Email,
		"type":              PickKind(form.Kind),
		"post_code":         form.PostalCode,
		"prefecture":        form.Prefecture,
		"city_town_village": form.Locality(),
		"address_details":   joinNonEmpty(" ", form.Building, form.Room),
	}
	if form.ID != "" {
		payload["address_id"] = form.ID
	}
	if form.Gender != "" {
		payload["gender"] = form.Gender
	}
	if dob := normalizeDate(form.DateOfBirth); dob != "" {
		payload["date_of_birth"] = dob
	}

	_, err = c.do(ctx, http.MethodPatch, c.cartBase+"/u/address/update", auth, payload)
	return err
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
