// Package checkout drives the address-resolution, address-assignment and
// confirmation sequence that turns the pending upstream cart into an order.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/ponchomart/storefront/internal/upstream"
)

type BillingMode string

const (
	BillingSame     BillingMode = "same"
	BillingExisting BillingMode = "existing"
	BillingNew      BillingMode = "new"
)

// Gateway is the slice of the upstream client checkout needs.
type Gateway interface {
	Addresses(ctx context.Context, sid, kind string) ([]upstream.Address, error)
	UpsertAddress(ctx context.Context, sid string, form upstream.AddressForm) error
	AssignAddress(ctx context.Context, sid, addressID, kind string) error
	Confirm(ctx context.Context, sid string) (map[string]any, error)
}

type Request struct {
	DeliveryAddressID string               `json:"delivery_address_id"`
	BillingMode       BillingMode          `json:"billing_mode"`
	BillingAddressID  string               `json:"billing_address_id"`
	BillingForm       upstream.AddressForm `json:"billing"`
}

// ValidationError reports a missing or invalid input field before any
// upstream call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: %s: %s", e.Field, e.Message)
}

type Orchestrator struct {
	Gateway Gateway
	Now     func() time.Time
}

// orderIDKeys is probed in order against the confirm response, top level and
// under "data". The upstream echoes the id under a different name depending
// on which backend answered.
var orderIDKeys = []string{"order_id", "orderId"}

// Confirm runs the full confirmation sequence and returns the order id shown
// to the user. Side effects already pushed upstream (the address assignments
// in particular) stay in place when a later step fails; the caller may retry
// the whole sequence.
func (o *Orchestrator) Confirm(ctx context.Context, sid string, req Request) (string, error) {
	if req.DeliveryAddressID == "" {
		return "", &ValidationError{Field: "delivery_address_id", Message: "select a delivery address"}
	}
	if req.BillingMode == "" {
		req.BillingMode = BillingSame
	}

	switch req.BillingMode {
	case BillingSame:
	case BillingExisting:
		if req.BillingAddressID == "" {
			return "", &ValidationError{Field: "billing_address_id", Message: "select a billing address"}
		}
	case BillingNew:
		if field, ok := missingBillingField(req.BillingForm); !ok {
			return "", &ValidationError{Field: field, Message: "billing address is incomplete"}
		}
	default:
		return "", &ValidationError{Field: "billing_mode", Message: "unknown billing mode"}
	}

	billID, err := o.resolveBillingID(ctx, sid, req)
	if err != nil {
		return "", err
	}

	// Sequential on purpose: the second assignment depends on the first
	// having committed server-side.
	if err := o.Gateway.AssignAddress(ctx, sid, req.DeliveryAddressID, upstream.KindDelivery); err != nil {
		return "", fmt.Errorf("assign delivery address: %w", err)
	}
	if err := o.Gateway.AssignAddress(ctx, sid, billID, upstream.KindBill); err != nil {
		return "", fmt.Errorf("assign billing address: %w", err)
	}

	body, err := o.Gateway.Confirm(ctx, sid)
	if err != nil {
		return "", fmt.Errorf("confirm order: %w", err)
	}
	return o.extractOrderID(body), nil
}

func (o *Orchestrator) resolveBillingID(ctx context.Context, sid string, req Request) (string, error) {
	switch req.BillingMode {
	case BillingExisting:
		return req.BillingAddressID, nil
	case BillingNew:
	default:
		return req.DeliveryAddressID, nil
	}

	form := req.BillingForm
	form.Kind = upstream.KindBill
	if err := o.Gateway.UpsertAddress(ctx, sid, form); err != nil {
		return "", fmt.Errorf("create billing address: %w", err)
	}

	// The upstream does not echo the created record, so locate it by field
	// match in a refreshed list; the first entry is the fallback.
	list, err := o.Gateway.Addresses(ctx, sid, upstream.KindBill)
	if err != nil {
		return "", fmt.Errorf("list billing addresses: %w", err)
	}
	if len(list) == 0 {
		return "", fmt.Errorf("billing address not found after create")
	}
	for _, addr := range list {
		if matchesForm(addr, form) {
			return addr.ID, nil
		}
	}
	return list[0].ID, nil
}

// matchesForm compares the identifying fields of a stored record with a
// submitted form. Locality is compared combined because the upstream stores
// city, town and street as one value.
func matchesForm(addr upstream.Address, form upstream.AddressForm) bool {
	return addr.LastName == form.LastName &&
		addr.FirstName == form.FirstName &&
		addr.PostalCode == form.PostalCode &&
		addr.Prefecture == form.Prefecture &&
		addr.Locality() == form.Locality() &&
		addr.Email == form.Email
}

func missingBillingField(form upstream.AddressForm) (string, bool) {
	checks := []struct {
		field string
		value string
	}{
		{"last_name", form.LastName},
		{"first_name", form.FirstName},
		{"last_name_kana", form.LastNameKana},
		{"first_name_kana", form.FirstNameKana},
		{"gender", form.Gender},
		{"date_of_birth", form.DateOfBirth},
		{"postal_code", form.PostalCode},
		{"prefecture", form.Prefecture},
		{"city", form.City},
		{"town", form.Town},
		{"street", form.Street},
		{"phone", form.Phone},
		{"email", form.Email},
	}
	for _, c := range checks {
		if c.value == "" {
			return c.field, false
		}
	}
	return "", true
}

// extractOrderID probes the confirm response for an order identifier. When
// none of the known keys is present the order still succeeded upstream, so a
// timestamp-based id is synthesized rather than failing the checkout.
func (o *Orchestrator) extractOrderID(body map[string]any) string {
	if data, ok := body["data"].(map[string]any); ok {
		if id := probeKeys(data); id != "" {
			return id
		}
	}
	if id := probeKeys(body); id != "" {
		return id
	}
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return fmt.Sprintf("EC-%d", now().UnixMilli())
}

func probeKeys(m map[string]any) string {
	for _, key := range orderIDKeys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
