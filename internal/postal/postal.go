// Package postal wraps the token-gated Japanese postal-code lookup service.
// Every lookup fetches a short-lived client-credentials token first; the
// service does not issue refresh tokens.
package postal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

// ErrNotFound means the code resolved to no address.
var ErrNotFound = errors.New("postal: address not found")

const defaultSearchPath = "/api/v1/searchcode"

type Client struct {
	host        string
	clientID    string
	secret      string
	searchPaths []string
	client      *http.Client
}

func New(host, clientID, secret, searchPath string) *Client {
	paths := []string{defaultSearchPath}
	if searchPath != "" && searchPath != defaultSearchPath {
		paths = []string{searchPath, defaultSearchPath}
	}
	return &Client{
		host:        host,
		clientID:    clientID,
		secret:      secret,
		searchPaths: paths,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Configured() bool {
	return c.host != "" && c.clientID != "" && c.secret != ""
}

type Result struct {
	Zip        string `json:"zip"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Town       string `json:"town"`
}

// Merge overlays a lookup result onto existing form values: a looked-up field
// wins only when it is non-empty, so a partial response never blanks out what
// the user already typed.
func Merge(existing, lookup Result) Result {
	out := existing
	if lookup.Zip != "" {
		out.Zip = lookup.Zip
	}
	if lookup.Prefecture != "" {
		out.Prefecture = lookup.Prefecture
	}
	if lookup.City != "" {
		out.City = lookup.City
	}
	if lookup.Town != "" {
		out.Town = lookup.Town
	}
	return out
}

var nonDigits = regexp.MustCompile(`\D`)

// NormalizeZip strips everything but digits.
func NormalizeZip(v string) string {
	return nonDigits.ReplaceAllString(v, "")
}

func (c *Client) token(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"client_id":  c.clientID,
		"secret_key": c.secret,
	})
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("https://%s/api/v1/j/token", c.host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	// The token endpoint requires the header even outside a proxy chain.
	req.Header.Set("x-forwarded-for", "127.0.0.1")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("postal token: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("postal token: %d: %s", res.StatusCode, raw)
	}

	var data struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("postal token decode: %w", err)
	}
	if data.Token != "" {
		return data.Token, nil
	}
	if data.AccessToken != "" {
		return data.AccessToken, nil
	}
	return "", fmt.Errorf("postal token missing in response")
}

// Lookup resolves a postal code into prefecture, city and town. Candidate
// search paths are tried in order so a relocated endpoint keeps working.
func (c *Client) Lookup(ctx context.Context, zip string) (*Result, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, path := range c.searchPaths {
		u := fmt.Sprintf("https://%s%s/%s?page=1&limit=10&choikitype=1&searchtype=1", c.host, path, zip)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		res, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("postal lookup: %w", err)
		}
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			raw, _ := io.ReadAll(res.Body)
			res.Body.Close()
			lastErr = fmt.Errorf("postal lookup: %d: %s", res.StatusCode, raw)
			continue
		}

		var data struct {
			Addresses []struct {
				PrefName string `json:"pref_name"`
				CityName string `json:"city_name"`
				TownName string `json:"town_name"`
			} `json:"addresses"`
		}
		err = json.NewDecoder(res.Body).Decode(&data)
		res.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("postal lookup decode: %w", err)
		}
		if len(data.Addresses) == 0 {
			return nil, ErrNotFound
		}
		first := data.Addresses[0]
		return &Result{
			Zip:        zip,
			Prefecture: first.PrefName,
			City:       first.CityName,
			Town:       first.TownName,
		}, nil
	}
	return nil, lastErr
}
