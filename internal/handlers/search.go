package handlers

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/service/search"
	"github.com/ponchomart/storefront/internal/util"
)

// SearchHandler answers text search from the local index instead of proxying
// the upstream, so search keeps working through upstream outages.
type SearchHandler struct {
	ES *elasticsearch.Client
}

func (h *SearchHandler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return respondError(c, http.StatusBadRequest, "q is required")
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	total, products, err := search.Search(c.Request().Context(), h.ES, ProductIndex, query, from, size)
	if err != nil {
		return respondError(c, http.StatusBadGateway, "search failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": StatusOK,
		"total":  total,
		"items":  products,
	})
}
