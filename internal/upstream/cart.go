package upstream

import (
	"context"
	"encoding/json"
	"net/http"
)

type CartLine struct {
	OrderItemID  string  `json:"order_item_id"`
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	Slug         string  `json:"slug"`
	Image        string  `json:"image"`
	VariantLabel string  `json:"variant_label,omitempty"`
}

type Cart struct {
	Lines []CartLine `json:"items"`
	Total float64    `json:"total"`
}

// Line returns the cart line holding productID, if any.
func (c *Cart) Line(productID string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}

// ProductIDSet snapshots the product ids currently in the cart.
func (c *Cart) ProductIDSet() map[string]bool {
	set := make(map[string]bool, len(c.Lines))
	for _, line := range c.Lines {
		set[line.ProductID] = true
	}
	return set
}

type rawOrderItem struct {
	ID          flexString `json:"id"`
	OrderItemID flexString `json:"order_item_id"`
	ProductID   flexString `json:"product_id"`
	Name        string     `json:"name"`
	Price       flexNumber `json:"price"`
	Quantity    flexNumber `json:"quantity"`
	Dimension1  string     `json:"dimension1"`
	Dimension2  string     `json:"dimension2"`
	Images      []rawImage `json:"images"`
}

// Cart fetches the authenticated pending cart and normalizes its lines.
func (c *Client) Cart(ctx context.Context, sid string) (*Cart, error) {
	auth, err := c.authHeader(ctx, sid)
	if err != nil {
		return nil, err
	}
	env, err := c.do(ctx, http.MethodGet, c.cartBase+"/u/cart", auth, nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		OrderItems []rawOrderItem `json:"order_items"`
		TotalPrice flexNumber     `json:"total_price"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, &NetworkError{Op: "decode cart", Err: err}
		}
	}

	cart := &Cart{Total: float64(data.TotalPrice)}
	for _, item := range data.OrderItems {
		lineID := item.ID.String()
		if lineID == "" {
			lineID = item.OrderItemID.String()
		}
		quantity := int(item.Quantity)
		if quantity < 1 {
			quantity = 1
		}
		image := ""
		if len(item.Images) > 0 {
			image = c.resolveImageURL(item.Images[0].URL)
		}
		cart.Lines = append(cart.Lines, CartLine{
			OrderItemID:  lineID,
			ProductID:    item.ProductID.String(),
			Name:         item.Name,
			Price:        float64(item.Price),
			Quantity:     quantity,
			Slug:         item.ProductID.String(),
			Image:        image,
			VariantLabel: variantLabel(item.Dimension1, item.Dimension2),
		})
	}
	return cart, nil
}

// AddItem puts one unit of a product into the cart. The upstream add call
// always establishes quantity 1; a follow-up SetQuantity raises it.
func (c *Client) AddItem(ctx context.Context, sid, productID string) error {
	auth, err := c.authHeader(ctx, sid)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, c.cartBase+"/u/cart/add", auth, map[string]string{
		"product_id": productID,
	})
	return err
}

// SetQuantity changes a cart line's quantity; 0 removes the line.
func (c *Client) SetQuantity(ctx context.Context, sid, orderItemID string, quantity int) error {
	auth, err := c.authHeader(ctx, sid)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPatch, c.cartBase+"/u/cart/edit", auth, map[string]any{
		"order_item_id": orderItemID,
		"quantity":      quantity,
	})
	return err
}

// AssignAddress attaches an address to the pending cart as its delivery or
// billing address.
func (c *Client) AssignAddress(ctx context.Context, sid, addressID, kind string) error {
	auth, err := c.authHeader(ctx, sid)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPatch, c.cartBase+"/u/cart/address", auth, map[string]string{
		"address_id": addressID,
		"type":       kind,
	})
	return err
}

// Confirm turns the pending cart into a placed order. The decoded body is
// returned as-is; order-id extraction probes it elsewhere because the
// upstream is not consistent about where (or whether) the id appears.
func (c *Client) Confirm(ctx context.Context, sid string) (map[string]any, error) {
	auth, err := c.authHeader(ctx, sid)
	if err != nil {
		return nil, err
	}
	return c.doRaw(ctx, http.MethodPost, c.cartBase+"/u/cart/confirm", auth)
}

// ClearCart drops every line from the pending cart.
func (c *Client) ClearCart(ctx context.Context, sid string) error {
	auth, err := c.authHeader(ctx, sid)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, c.cartBase+"/u/cart", auth, nil)
	return err
}
