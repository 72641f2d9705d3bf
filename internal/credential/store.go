// Package credential caches the bearer credential issued by the upstream
// token endpoint. Token material travels to the browser in HttpOnly cookies,
// so the in-memory cache is hydrated from cookie state on every request and
// written back after login or refresh.
package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshBuffer is subtracted from the expiry when deciding validity, so a
// token is refreshed slightly before the upstream would start rejecting it.
const refreshBuffer = 60 * time.Second

// defaultTTL applies when the token endpoint omits expiresIn.
const defaultTTL = 10 * time.Minute

type Credential struct {
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

func (c Credential) Valid(now time.Time) bool {
	if c.AccessToken == "" || c.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(c.ExpiresAt.Add(-refreshBuffer))
}

func (c Credential) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Payload is the issued-token shape the upstream wraps under "data".
type Payload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type tokenEnvelope struct {
	Data    *Payload `json:"data"`
	Message string   `json:"message"`
}

// Store is the per-process credential cache, keyed by session id. Refresh is
// guarded by a singleflight group so concurrent requests holding the same
// expired credential share one token-endpoint call.
type Store struct {
	tokenURL string
	basic    string
	client   *http.Client
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]Credential
	group singleflight.Group
}

func NewStore(tokenURL, basicAuth string) *Store {
	return &Store{
		tokenURL: tokenURL,
		basic:    formatBasic(basicAuth),
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		now:   time.Now,
		cache: map[string]Credential{},
	}
}

func formatBasic(v string) string {
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, "Basic ") {
		return v
	}
	return "Basic " + v
}

// Hydrate installs cookie-carried state. A credential already in the cache is
// kept when it was issued at or after the cookie one, so an in-process
// refresh is not clobbered by a stale cookie round-trip.
func (s *Store) Hydrate(key string, cred Credential) {
	if cred.Empty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.cache[key]; ok && !cur.IssuedAt.Before(cred.IssuedAt) {
		return
	}
	s.cache[key] = cred
}

func (s *Store) Peek(key string) (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cache[key]
	return c, ok
}

// Apply installs a newly issued payload and returns the resulting credential
// so the caller can persist it to cookies.
func (s *Store) Apply(key string, p Payload) Credential {
	now := s.now()
	cred := Credential{
		AccessToken: p.AccessToken,
		IssuedAt:    now,
		ExpiresAt:   now.Add(defaultTTL),
	}
	if p.ExpiresIn > 0 {
		cred.ExpiresAt = now.Add(time.Duration(p.ExpiresIn) * time.Second)
	}
	s.mu.Lock()
	if p.RefreshToken != "" {
		cred.RefreshToken = p.RefreshToken
	} else {
		cred.RefreshToken = s.cache[key].RefreshToken
	}
	s.cache[key] = cred
	s.mu.Unlock()
	return cred
}

func (s *Store) Clear(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
}

// AccessToken returns a currently valid token, attempting at most one refresh
// when the cached one is missing or near expiry. The second return is false
// when the caller must degrade to guest behavior; no error escapes here.
func (s *Store) AccessToken(ctx context.Context, key string) (string, bool) {
	cred, _ := s.Peek(key)
	if cred.Valid(s.now()) {
		return cred.AccessToken, true
	}
	if cred.RefreshToken == "" {
		return "", false
	}
	if !s.refresh(ctx, key, cred.RefreshToken) {
		return "", false
	}
	cred, _ = s.Peek(key)
	return cred.AccessToken, cred.AccessToken != ""
}

// AuthHeader returns "Bearer <token>" or "".
func (s *Store) AuthHeader(ctx context.Context, key string) (string, bool) {
	token, ok := s.AccessToken(ctx, key)
	if !ok {
		return "", false
	}
	return "Bearer " + token, true
}

// Login exchanges identifier and secret through the upstream's password-style
// grant and caches the issued credential under key.
func (s *Store) Login(ctx context.Context, key, identifier, password string) (Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "custom-password-grant")
	form.Set("username", identifier)
	form.Set("credentials", password)

	payload, err := s.requestToken(ctx, form)
	if err != nil {
		return Credential{}, err
	}
	return s.Apply(key, *payload), nil
}

func (s *Store) refresh(ctx context.Context, key, refreshToken string) bool {
	_, err, _ := s.group.Do(key, func() (any, error) {
		form := url.Values{}
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", refreshToken)

		payload, err := s.requestToken(ctx, form)
		if err != nil {
			return nil, err
		}
		s.Apply(key, *payload)
		return nil, nil
	})
	return err == nil
}

func (s *Store) requestToken(ctx context.Context, form url.Values) (*Payload, error) {
	if s.basic == "" {
		return nil, fmt.Errorf("token request: client credentials are not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	req.Header.Set("Authorization", s.basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer res.Body.Close()

	var envelope tokenEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("token response decode: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 || envelope.Data == nil || envelope.Data.AccessToken == "" {
		msg := envelope.Message
		if msg == "" {
			msg = res.Status
		}
		return nil, fmt.Errorf("token request rejected: %s", msg)
	}
	return envelope.Data, nil
}
