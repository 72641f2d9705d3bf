// Package upstream is the single integration point with the commerce
// platform's cart, address and product APIs. It resolves a bearer header from
// the credential store before every call and flattens the platform's
// inconsistent response envelopes into one canonical shape.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ponchomart/storefront/internal/credential"
)

type Config struct {
	CartBase     string
	ProductBase  string
	ResourceBase string
}

type Client struct {
	cartBase     string
	productBase  string
	resourceBase string
	client       *http.Client
	creds        *credential.Store
}

func New(cfg Config, creds *credential.Store) *Client {
	return &Client{
		cartBase:     strings.TrimRight(cfg.CartBase, "/"),
		productBase:  strings.TrimRight(cfg.ProductBase, "/"),
		resourceBase: strings.TrimRight(cfg.ResourceBase, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		creds: creds,
	}
}

func (c *Client) authHeader(ctx context.Context, sid string) (string, error) {
	header, ok := c.creds.AuthHeader(ctx, sid)
	if !ok {
		return "", ErrUnauthenticated
	}
	return header, nil
}

// envelope is the common upstream response wrapper. Data stays raw because
// its shape differs per endpoint.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// do issues one upstream call and decodes the envelope. A non-2xx status
// becomes a StatusError carrying the upstream message when present.
func (c *Client) do(ctx context.Context, method, url, auth string, body any) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &NetworkError{Op: "encode request", Err: err}
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &NetworkError{Op: "build request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: method + " " + url, Err: err}
	}
	defer res.Body.Close()

	var env envelope
	// Some endpoints answer non-2xx with an empty or non-JSON body; the
	// envelope stays zero and the status error below still fires.
	_ = json.NewDecoder(res.Body).Decode(&env)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = res.Status
		}
		return nil, &StatusError{Code: res.StatusCode, Message: msg}
	}
	return &env, nil
}

// doRaw is for the few endpoints whose interesting fields float at the top
// level of the body instead of under "data". The whole decoded body comes
// back for the caller to probe.
func (c *Client) doRaw(ctx context.Context, method, url, auth string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, &NetworkError{Op: "build request", Err: err}
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: method + " " + url, Err: err}
	}
	defer res.Body.Close()

	body := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := body["message"].(string)
		if msg == "" {
			msg = res.Status
		}
		return nil, &StatusError{Code: res.StatusCode, Message: msg}
	}
	return body, nil
}
