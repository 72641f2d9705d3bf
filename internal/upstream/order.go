package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// OrderAddress is the flattened address snapshot attached to a placed order.
// Names arrive split and are joined the Japanese way, family name first with
// no separator.
type OrderAddress struct {
	Name       string `json:"name"`
	NameKana   string `json:"name_kana"`
	PostalCode string `json:"postal_code"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Town       string `json:"town"`
	Street     string `json:"street"`
	Building   string `json:"building"`
	Room       string `json:"room"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

type Order struct {
	ID             string       `json:"id"`
	Status         string       `json:"status"`
	StatusLabel    string       `json:"status_label"`
	Total          float64      `json:"total"`
	Points         int          `json:"points"`
	CreatedAt      string       `json:"created_at"`
	Items          []CartLine   `json:"items"`
	Shipping       OrderAddress `json:"shipping"`
	Billing        OrderAddress `json:"billing"`
	TrackingNumber string       `json:"tracking_number"`
}

// StatusLabel maps an upstream order status onto the label shown in the
// storefront's order list. Unknown statuses read as awaiting payment.
func StatusLabel(status string) string {
	switch strings.ToLower(status) {
	case "cart":
		return "カート"
	case "confirm":
		return "未決済"
	case "pending_result":
		return "結果待ち"
	case "failure":
		return "失敗"
	case "paid":
		return "支払い完了"
	case "delivery":
		return "配送中"
	default:
		return "未決済"
	}
}

type rawOrder struct {
	OrderID         flexString     `json:"order_id"`
	Status          string         `json:"status"`
	TotalPrice      flexNumber     `json:"total_price"`
	TotalGrantPoint flexNumber     `json:"total_grant_point"`
	ConfirmAt       string         `json:"confirm_at"`
	PaidAt          string         `json:"paid_at"`
	DeliveryAt      string         `json:"delivery_at"`
	OrderItems      []rawOrderItem `json:"order_items"`
	DeliveryAddress rawAddress     `json:"delivery_address_id"`
	BillAddress     rawAddress     `json:"bill_address_id"`
	TrackingNumber  string         `json:"tracking_number"`
}

// placeholderDate reports the sentinel values the upstream writes into date
// columns it has not filled yet.
func placeholderDate(v string) bool {
	return v == "" ||
		strings.HasPrefix(v, "1900-01-01") ||
		strings.HasPrefix(v, "0001-01-01")
}

// orderDate picks the first real timestamp in confirm, paid, delivery order.
// A fully unfilled order still gets a date so the list stays sortable.
func orderDate(r rawOrder, now func() time.Time) string {
	for _, v := range []string{r.ConfirmAt, r.PaidAt, r.DeliveryAt} {
		if !placeholderDate(v) {
			return v
		}
	}
	return now().UTC().Format(time.RFC3339)
}

func buildOrderAddress(r rawAddress) OrderAddress {
	return OrderAddress{
		Name:       strings.TrimSpace(r.LastName + r.FirstName),
		NameKana:   strings.TrimSpace(r.KanaLastName + r.KanaFirstName),
		PostalCode: r.PostCode,
		Prefecture: r.Prefecture,
		City:       r.CityTownVillage,
		Building:   r.AddressDetails,
		Phone:      r.Phone,
		Email:      r.Email,
	}
}

func (c *Client) normalizeOrder(r rawOrder) Order {
	order := Order{
		ID:             r.OrderID.String(),
		Status:         r.Status,
		StatusLabel:    StatusLabel(r.Status),
		Total:          float64(r.TotalPrice),
		Points:         int(r.TotalGrantPoint),
		CreatedAt:      orderDate(r, time.Now),
		Shipping:       buildOrderAddress(r.DeliveryAddress),
		Billing:        buildOrderAddress(r.BillAddress),
		TrackingNumber: r.TrackingNumber,
	}
	for _, item := range r.OrderItems {
		lineID := item.ID.String()
		if lineID == "" {
			lineID = item.OrderItemID.String()
		}
		image := ""
		if len(item.Images) > 0 {
			image = c.resolveImageURL(item.Images[0].URL)
		}
		order.Items = append(order.Items, CartLine{
			OrderItemID:  lineID,
			ProductID:    item.ProductID.String(),
			Name:         item.Name,
			Price:        float64(item.Price),
			Quantity:     int(item.Quantity),
			Slug:         item.ProductID.String(),
			Image:        image,
			VariantLabel: variantLabel(item.Dimension1, item.Dimension2),
		})
	}
	return order
}

// OrderHistory lists the caller's placed orders, newest first as the upstream
// returns them.
func (c *Client) OrderHistory(ctx context.Context, sid string) ([]Order, error) {
	auth, err := c.authHeader(ctx, sid)
	if err != nil {
		return nil, err
	}
	env, err := c.do(ctx, http.MethodGet, c.cartBase+"/u/order/history", auth, nil)
	if err != nil {
		return nil, err
	}

	var raw []rawOrder
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &raw); err != nil {
			return nil, &NetworkError{Op: "decode order history", Err: err}
		}
	}

	out := make([]Order, 0, len(raw))
	for _, r := range raw {
		out = append(out, c.normalizeOrder(r))
	}
	return out, nil
}
