package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

type Product struct {
	ID           string   `json:"id"`
	Slug         string   `json:"slug"`
	GroupID      string   `json:"group_id,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	Stock        int      `json:"stock"`
	Category     string   `json:"category"`
	Dimension1   string   `json:"dimension1,omitempty"`
	Dimension2   string   `json:"dimension2,omitempty"`
	VariantLabel string   `json:"variant_label,omitempty"`
	Image        string   `json:"image"`
	Images       []string `json:"images"`
}

type rawProduct struct {
	ProductID    flexString `json:"product_id"`
	ProductIDAlt flexString `json:"productId"`
	ID           flexString `json:"id"`
	GroupID      flexString `json:"group_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        flexNumber `json:"price"`
	Stock        flexNumber `json:"stock"`
	Category     string     `json:"category"`
	Dimension1   string     `json:"dimension1"`
	Dimension2   string     `json:"dimension2"`
	Images       []rawImage `json:"images"`
}

func (r rawProduct) id() string {
	if v := r.ProductID.String(); v != "" {
		return v
	}
	if v := r.ProductIDAlt.String(); v != "" {
		return v
	}
	return r.ID.String()
}

func (c *Client) normalizeProduct(r rawProduct) Product {
	id := r.id()
	images := c.imageURLs(r.Images)
	image := ""
	if len(images) > 0 {
		image = images[0]
	}
	return Product{
		ID:           id,
		Slug:         id,
		GroupID:      r.GroupID.String(),
		Name:         r.Name,
		Description:  r.Description,
		Price:        float64(r.Price),
		Stock:        int(r.Stock),
		Category:     r.Category,
		Dimension1:   r.Dimension1,
		Dimension2:   r.Dimension2,
		VariantLabel: variantLabel(r.Dimension1, r.Dimension2),
		Image:        image,
		Images:       images,
	}
}

func (c *Client) decodeProducts(data json.RawMessage) []Product {
	var out []Product
	seen := map[string]bool{}
	for _, raw := range collection(data) {
		var r rawProduct
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		p := c.normalizeProduct(r)
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// ProductByID fetches one product. Product reads never require a credential;
// an auth header rides along when one is available.
func (c *Client) ProductByID(ctx context.Context, sid, id string) (*Product, error) {
	products, err := c.productCall(ctx, sid, c.productBase+"/product/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	if len(products) > 0 {
		return &products[0], nil
	}
	return nil, &StatusError{Code: http.StatusNotFound, Message: "product not found"}
}

// Search queries the upstream catalog.
func (c *Client) Search(ctx context.Context, sid, query string) ([]Product, error) {
	u := c.productBase + "/product/search?q=" + url.QueryEscape(query) + "&page=1&size=100"
	return c.productCall(ctx, sid, u)
}

// All lists the upstream catalog's first page of products.
func (c *Client) All(ctx context.Context, sid string) ([]Product, error) {
	return c.productCall(ctx, sid, c.productBase+"/product/all?page=1&size=100")
}

// VariantsByGroup returns every variant sharing a product's group. The
// product endpoint usually bundles them; when it returns a single record with
// a group id, search picks up the siblings.
func (c *Client) VariantsByGroup(ctx context.Context, sid, id string) ([]Product, error) {
	products, err := c.productCall(ctx, sid, c.productBase+"/product/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	if len(products) > 1 || len(products) == 0 || products[0].GroupID == "" {
		return products, nil
	}

	groupID := products[0].GroupID
	found, err := c.Search(ctx, sid, groupID)
	if err != nil {
		return products, nil
	}
	seen := map[string]bool{products[0].ID: true}
	for _, p := range found {
		if p.GroupID != groupID || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		products = append(products, p)
	}
	return products, nil
}

func (c *Client) productCall(ctx context.Context, sid, u string) ([]Product, error) {
	auth, _ := c.creds.AuthHeader(ctx, sid)
	env, err := c.do(ctx, http.MethodGet, u, auth, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeProducts(env.Data), nil
}
