package credential

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestStore(tokenURL string) *Store {
	s := NewStore(tokenURL, "dGVzdDpzZWNyZXQ=")
	s.now = fixedNow
	return s
}

func tokenServer(t *testing.T, hits *int64, payload Payload) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Basic dGVzdDpzZWNyZXQ=", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		json.NewEncoder(w).Encode(map[string]any{"data": payload})
	}))
}

func TestCredential_Valid_RefreshBuffer(t *testing.T) {
	t.Parallel()

	now := fixedNow()
	cred := Credential{AccessToken: "a", ExpiresAt: now.Add(90 * time.Second)}
	assert.True(t, cred.Valid(now))

	// Inside the buffer the token still works upstream but counts as
	// expired here, forcing an early refresh.
	cred.ExpiresAt = now.Add(30 * time.Second)
	assert.False(t, cred.Valid(now))

	assert.False(t, Credential{ExpiresAt: now.Add(time.Hour)}.Valid(now))
	assert.False(t, Credential{AccessToken: "a"}.Valid(now))
}

func TestStore_Apply_DefaultTTL(t *testing.T) {
	t.Parallel()

	s := newTestStore("http://unused")
	cred := s.Apply("sid", Payload{AccessToken: "a"})
	assert.Equal(t, fixedNow().Add(10*time.Minute), cred.ExpiresAt)

	cred = s.Apply("sid", Payload{AccessToken: "a", ExpiresIn: 120})
	assert.Equal(t, fixedNow().Add(2*time.Minute), cred.ExpiresAt)
}

func TestStore_Apply_KeepsRefreshToken(t *testing.T) {
	t.Parallel()

	s := newTestStore("http://unused")
	s.Apply("sid", Payload{AccessToken: "a", RefreshToken: "r1"})

	cred := s.Apply("sid", Payload{AccessToken: "b"})
	assert.Equal(t, "r1", cred.RefreshToken)

	cred = s.Apply("sid", Payload{AccessToken: "c", RefreshToken: "r2"})
	assert.Equal(t, "r2", cred.RefreshToken)
}

func TestStore_Hydrate_KeepsNewerCredential(t *testing.T) {
	t.Parallel()

	s := newTestStore("http://unused")
	fresh := Credential{AccessToken: "fresh", IssuedAt: fixedNow()}
	stale := Credential{AccessToken: "stale", IssuedAt: fixedNow().Add(-time.Hour)}

	s.Hydrate("sid", fresh)
	s.Hydrate("sid", stale)

	got, ok := s.Peek("sid")
	require.True(t, ok)
	assert.Equal(t, "fresh", got.AccessToken)

	s.Hydrate("sid", Credential{AccessToken: "newer", IssuedAt: fixedNow().Add(time.Minute)})
	got, _ = s.Peek("sid")
	assert.Equal(t, "newer", got.AccessToken)
}

func TestStore_Login_SendsPasswordGrant(t *testing.T) {
	t.Parallel()

	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "custom-password-grant", r.PostForm.Get("grant_type"))
		require.Equal(t, "user@example.com", r.PostForm.Get("username"))
		require.Equal(t, "hunter2", r.PostForm.Get("credentials"))
		json.NewEncoder(w).Encode(map[string]any{"data": Payload{
			AccessToken:  "acc",
			RefreshToken: "ref",
			ExpiresIn:    600,
		}})
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	cred, err := s.Login(context.Background(), "sid", "user@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "acc", cred.AccessToken)
	assert.Equal(t, "ref", cred.RefreshToken)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestStore_Login_RejectedToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "bad credentials"})
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	_, err := s.Login(context.Background(), "sid", "user", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")
}

func TestStore_AccessToken_ValidTokenSkipsRefresh(t *testing.T) {
	t.Parallel()

	var hits int64
	srv := tokenServer(t, &hits, Payload{AccessToken: "new"})
	defer srv.Close()

	s := newTestStore(srv.URL)
	s.Hydrate("sid", Credential{
		AccessToken: "cached",
		IssuedAt:    fixedNow(),
		ExpiresAt:   fixedNow().Add(time.Hour),
	})

	token, ok := s.AccessToken(context.Background(), "sid")
	require.True(t, ok)
	assert.Equal(t, "cached", token)
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits))
}

func TestStore_AccessToken_RefreshesExpired(t *testing.T) {
	t.Parallel()

	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		require.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		json.NewEncoder(w).Encode(map[string]any{"data": Payload{
			AccessToken:  "refreshed",
			RefreshToken: "new-refresh",
			ExpiresIn:    600,
		}})
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	s.Hydrate("sid", Credential{
		AccessToken:  "expired",
		RefreshToken: "old-refresh",
		IssuedAt:     fixedNow().Add(-time.Hour),
		ExpiresAt:    fixedNow().Add(-time.Minute),
	})

	token, ok := s.AccessToken(context.Background(), "sid")
	require.True(t, ok)
	assert.Equal(t, "refreshed", token)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestStore_AccessToken_NoRefreshTokenMeansGuest(t *testing.T) {
	t.Parallel()

	var hits int64
	srv := tokenServer(t, &hits, Payload{AccessToken: "new"})
	defer srv.Close()

	s := newTestStore(srv.URL)
	s.Hydrate("sid", Credential{
		AccessToken: "expired",
		IssuedAt:    fixedNow().Add(-time.Hour),
		ExpiresAt:   fixedNow().Add(-time.Minute),
	})

	_, ok := s.AccessToken(context.Background(), "sid")
	assert.False(t, ok)
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits))
}

func TestStore_AccessToken_FailedRefreshMeansGuest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "refresh token revoked"})
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	s.Hydrate("sid", Credential{
		AccessToken:  "expired",
		RefreshToken: "revoked",
		IssuedAt:     fixedNow().Add(-time.Hour),
		ExpiresAt:    fixedNow().Add(-time.Minute),
	})

	_, ok := s.AccessToken(context.Background(), "sid")
	assert.False(t, ok)
}

func TestStore_Refresh_SingleFlight(t *testing.T) {
	t.Parallel()

	var hits int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		<-release
		json.NewEncoder(w).Encode(map[string]any{"data": Payload{
			AccessToken:  "refreshed",
			RefreshToken: "next",
			ExpiresIn:    600,
		}})
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	s.Hydrate("sid", Credential{
		AccessToken:  "expired",
		RefreshToken: "old",
		IssuedAt:     fixedNow().Add(-time.Hour),
		ExpiresAt:    fixedNow().Add(-time.Minute),
	})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, ok := s.AccessToken(context.Background(), "sid")
			require.True(t, ok)
			results[i] = token
		}(i)
	}

	// Give every goroutine time to pile onto the in-flight refresh before
	// the endpoint answers.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
	for _, token := range results {
		assert.Equal(t, "refreshed", token)
	}
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	s := newTestStore("http://unused")
	s.Apply("sid", Payload{AccessToken: "a", RefreshToken: "r"})
	s.Clear("sid")

	_, ok := s.Peek("sid")
	assert.False(t, ok)
}
