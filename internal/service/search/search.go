// Package search maintains a local Elasticsearch index over the upstream
// catalog so text search stays available (and fast) independent of the
// upstream's own search endpoint. Documents are upserted opportunistically as
// product reads flow through the gateway.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/ponchomart/storefront/internal/upstream"
)

// IndexProducts upserts product documents keyed by product id. Indexing is
// best-effort; the first failure is returned and the rest skipped.
func IndexProducts(ctx context.Context, es *elasticsearch.Client, index string, products []upstream.Product) error {
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("index encode: %w", err)
		}
		res, err := es.Index(
			index,
			bytes.NewReader(body),
			es.Index.WithDocumentID(p.ID),
			es.Index.WithContext(ctx),
		)
		if err != nil {
			return fmt.Errorf("index %s: %w", p.ID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("index %s: %s", p.ID, res.Status())
		}
	}
	return nil
}

func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []upstream.Product, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search encode: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source upstream.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search decode: %w", err)
	}

	products := make([]upstream.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		products[i] = hit.Source
	}
	return r.Hits.Total.Value, products, nil
}
