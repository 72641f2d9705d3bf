package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/logging"
	"github.com/ponchomart/storefront/internal/middleware/session"
	"github.com/ponchomart/storefront/internal/service/search"
	"github.com/ponchomart/storefront/internal/upstream"
)

// ProductIndex is the Elasticsearch index backing local catalog search.
const ProductIndex = "products"

// ProductHandler serves catalog reads. These work for guests and members
// alike; a credential rides along when present but is never required.
type ProductHandler struct {
	Gateway *upstream.Client
	ES      *elasticsearch.Client
}

// indexAsync mirrors fetched products into the search index. Failures are
// logged and never surface to the caller.
func (h *ProductHandler) indexAsync(c echo.Context, products []upstream.Product) {
	if h.ES == nil || len(products) == 0 {
		return
	}
	l := logging.FromContext(c.Request().Context())
	// The request context dies with the response; indexing gets its own.
	go func(products []upstream.Product) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := search.IndexProducts(ctx, h.ES, ProductIndex, products); err != nil {
			l.Warn("product indexing failed", "error", err)
		}
	}(products)
}

func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.Gateway.All(c.Request().Context(), session.SID(c))
	if err != nil {
		return respondUpstream(c, err, "failed to fetch products")
	}
	h.indexAsync(c, products)
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": products})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return respondError(c, http.StatusBadRequest, "product id is required")
	}
	product, err := h.Gateway.ProductByID(c.Request().Context(), session.SID(c), id)
	if err != nil {
		return respondUpstream(c, err, "failed to fetch product")
	}
	h.indexAsync(c, []upstream.Product{*product})
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "item": product})
}

// Variants lists every sibling product sharing the requested product's group.
func (h *ProductHandler) Variants(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return respondError(c, http.StatusBadRequest, "product id is required")
	}
	products, err := h.Gateway.VariantsByGroup(c.Request().Context(), session.SID(c), id)
	if err != nil {
		return respondUpstream(c, err, "failed to fetch variants")
	}
	h.indexAsync(c, products)
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": products})
}

// UpstreamSearch proxies the upstream catalog search endpoint.
func (h *ProductHandler) UpstreamSearch(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return respondError(c, http.StatusBadRequest, "q is required")
	}
	products, err := h.Gateway.Search(c.Request().Context(), session.SID(c), query)
	if err != nil {
		return respondUpstream(c, err, "search failed")
	}
	h.indexAsync(c, products)
	return c.JSON(http.StatusOK, echo.Map{"status": StatusOK, "items": products})
}
