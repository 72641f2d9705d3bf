package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// Banner is one rotating top-page image, already rewritten onto the resource
// host.
type Banner struct {
	ID    string `json:"id"`
	Image string `json:"image"`
	Alt   string `json:"alt"`
}

type rawBanner struct {
	Sequence flexNumber `json:"sequence"`
	URL      string     `json:"url"`
}

// Banners lists the storefront banner images in sequence order. The endpoint
// is public; no credential is attached.
func (c *Client) Banners(ctx context.Context) ([]Banner, error) {
	env, err := c.do(ctx, http.MethodGet, c.productBase+"/banner/app", "", nil)
	if err != nil {
		return nil, err
	}

	var raw []rawBanner
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &raw); err != nil {
			return nil, &NetworkError{Op: "decode banners", Err: err}
		}
	}
	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].Sequence < raw[j].Sequence
	})

	out := make([]Banner, 0, len(raw))
	for _, r := range raw {
		image := c.resolveImageURL(r.URL)
		if image == "" {
			continue
		}
		seq := int(r.Sequence)
		out = append(out, Banner{
			ID:    fmt.Sprintf("%d", seq),
			Image: image,
			Alt:   fmt.Sprintf("Banner %d", seq),
		})
	}
	return out, nil
}
