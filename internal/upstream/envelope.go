package upstream

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexString tolerates upstream fields that arrive as either a JSON string
// or a bare number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(b))
	return nil
}

func (f flexString) String() string { return string(f) }

type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	if raw == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexNumber(v)
	return nil
}

// collection unwraps the payload array the upstream hides under one of
// several keys, in fixed priority order, falling back to a bare array and
// finally to nothing. Every endpoint goes through this one adapter instead of
// re-probing keys at call sites.
func collection(data json.RawMessage) []json.RawMessage {
	var wrap struct {
		Products []json.RawMessage `json:"Products"`
		Items    []json.RawMessage `json:"Items"`
		LowItems []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &wrap); err == nil {
		switch {
		case wrap.Products != nil:
			return wrap.Products
		case wrap.Items != nil:
			return wrap.Items
		case wrap.LowItems != nil:
			return wrap.LowItems
		}
	}
	var bare []json.RawMessage
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare
	}
	return nil
}

// resolveImageURL rewrites bare relative image paths onto the resource host
// and passes absolute URLs through unchanged.
func (c *Client) resolveImageURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return c.resourceBase + "/resource/" + strings.TrimLeft(raw, "/")
}

type rawImage struct {
	URL string `json:"url"`
}

func (c *Client) imageURLs(images []rawImage) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if u := c.resolveImageURL(img.URL); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func variantLabel(dim1, dim2 string) string {
	parts := make([]string, 0, 2)
	if dim1 != "" {
		parts = append(parts, dim1)
	}
	if dim2 != "" {
		parts = append(parts, dim2)
	}
	return strings.Join(parts, " / ")
}
