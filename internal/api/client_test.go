// ABOUTME: Tests for the authenticated client: bearer headers, refresh-and-retry, forced logout
// ABOUTME: Runs against an httptest backend that issues and rotates opaque tokens

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sia-console/internal/session"
	"github.com/2389/sia-console/internal/store"
)

// fakeBackend accepts exactly one access token at a time.
type fakeBackend struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	nextAccess   string
	nextRefresh  string // empty means the refresh response omits a new refresh token

	refreshCalls atomic.Int32
	authHeaders  []string
	refreshDelay time.Duration
	refreshFails bool
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+PathLogin, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success": false, "message": "Invalid credentials"}`))
			return
		}
		b.mu.Lock()
		access, refresh := b.validAccess, b.validRefresh
		b.mu.Unlock()
		writeJSON(w, map[string]any{
			"success": true,
			"data": map[string]any{
				"access_token":  access,
				"refresh_token": refresh,
				"user":          map[string]any{"id": 7, "email": body["email"], "is_staff": true},
			},
		})
	})

	mux.HandleFunc("POST "+PathRefresh, func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refreshDelay > 0 {
			time.Sleep(b.refreshDelay)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.refreshFails || body["refresh_token"] != b.validRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Token is invalid or expired"}`))
			return
		}
		b.validAccess = b.nextAccess
		data := map[string]any{"access_token": b.nextAccess}
		if b.nextRefresh != "" {
			b.validRefresh = b.nextRefresh
			data["refresh_token"] = b.nextRefresh
		}
		writeJSON(w, map[string]any{"success": true, "data": data})
	})

	mux.HandleFunc("POST "+PathLogout, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET "+PathProfile, func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		b.mu.Lock()
		b.authHeaders = append(b.authHeaders, auth)
		valid := auth == "Bearer "+b.validAccess
		b.mu.Unlock()
		if !valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Given token not valid"}`))
			return
		}
		writeJSON(w, map[string]any{"user": map[string]any{"id": "u1", "email": "ada@example.com", "first_name": "Ada"}})
	})

	mux.HandleFunc("GET "+PathWaitlistStats, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"count": 42})
	})

	mux.HandleFunc("POST "+PathChatReset, func(w http.ResponseWriter, r *http.Request) {
		// empty 200 body
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type recordingNav struct {
	mu      sync.Mutex
	reasons []string
}

func (n *recordingNav) ToEntry(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *recordingNav) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reasons)
}

type fixture struct {
	backend *fakeBackend
	server  *httptest.Server
	store   store.Store
	nav     *recordingNav
	client  *Client
}

func newFixture(t *testing.T, b *fakeBackend) *fixture {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	st := store.NewMemoryStore()
	nav := &recordingNav{}
	sess := session.New(st, nav)
	c := NewClient(srv.URL, sess, WithHTTPClient(srv.Client()))
	return &fixture{backend: b, server: srv, store: st, nav: nav, client: c}
}

func (f *fixture) seed(t *testing.T, access, refresh string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, store.KeyAccessToken, access))
	require.NoError(t, f.store.Set(ctx, store.KeyRefreshToken, refresh))
	require.NoError(t, f.store.Set(ctx, store.KeyUser, `{"email":"ada@example.com"}`))
}

func (f *fixture) get(t *testing.T, key string) string {
	t.Helper()
	v, err := f.store.Get(context.Background(), key)
	if errors.Is(err, store.ErrNotFound) {
		return ""
	}
	require.NoError(t, err)
	return v
}

func TestLoginStoresSession(t *testing.T) {
	f := newFixture(t, &fakeBackend{validAccess: "A1", validRefresh: "R1"})
	ctx := context.Background()

	result, err := f.client.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "A1", result.AccessToken)
	assert.Equal(t, "R1", result.RefreshToken)

	assert.Equal(t, "A1", f.get(t, store.KeyAccessToken))
	assert.Equal(t, "R1", f.get(t, store.KeyRefreshToken))
	assert.Contains(t, f.get(t, store.KeyUser), "ada@example.com")
}

func TestLoginRejected(t *testing.T) {
	f := newFixture(t, &fakeBackend{validAccess: "A1", validRefresh: "R1"})

	_, err := f.client.Login(context.Background(), "ada@example.com", "wrong")
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	assert.Equal(t, "Invalid credentials", he.Message)

	// Anonymous calls never refresh or navigate
	assert.Equal(t, int32(0), f.backend.refreshCalls.Load())
	assert.Equal(t, 0, f.nav.count())
	assert.Empty(t, f.get(t, store.KeyAccessToken))
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t, &fakeBackend{})

	_, err := f.client.Login(context.Background(), "  ", "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Required", ve.Field("email"))
	assert.Equal(t, "Required", ve.Field("password"))
}

func TestBearerHeaderReadsStoreEachCall(t *testing.T) {
	b := &fakeBackend{validAccess: "A1", validRefresh: "R1"}
	f := newFixture(t, b)
	ctx := context.Background()
	f.seed(t, "A1", "R1")

	_, err := f.client.AdminProfile(ctx)
	require.NoError(t, err)

	// Token replaced behind the client's back
	b.mu.Lock()
	b.validAccess = "A9"
	b.mu.Unlock()
	require.NoError(t, f.store.Set(ctx, store.KeyAccessToken, "A9"))

	_, err = f.client.AdminProfile(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer A1", "Bearer A9"}, b.authHeaders)
	assert.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestRefreshAndRetryKeepsRefreshToken(t *testing.T) {
	// Server has rotated the access token to A2; the refresh response carries no refresh token
	b := &fakeBackend{validAccess: "A2-not-yet", validRefresh: "R1", nextAccess: "A2"}
	f := newFixture(t, b)
	f.seed(t, "A1", "R1")

	p, err := f.client.AdminProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "Ada", p.DisplayName())

	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, []string{"Bearer A1", "Bearer A2"}, b.authHeaders)
	assert.Equal(t, "A2", f.get(t, store.KeyAccessToken))
	assert.Equal(t, "R1", f.get(t, store.KeyRefreshToken))
	assert.Equal(t, 0, f.nav.count())
}

func TestRefreshRotatesRefreshToken(t *testing.T) {
	b := &fakeBackend{validAccess: "stale", validRefresh: "R1", nextAccess: "A2", nextRefresh: "R2"}
	f := newFixture(t, b)
	f.seed(t, "A1", "R1")

	_, err := f.client.AdminProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A2", f.get(t, store.KeyAccessToken))
	assert.Equal(t, "R2", f.get(t, store.KeyRefreshToken))
}

func TestRefreshFailureForcesLogout(t *testing.T) {
	b := &fakeBackend{validAccess: "other", validRefresh: "R1", refreshFails: true}
	f := newFixture(t, b)
	f.seed(t, "A1", "R1")

	_, err := f.client.AdminProfile(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.Empty(t, f.get(t, store.KeyAccessToken))
	assert.Empty(t, f.get(t, store.KeyRefreshToken))
	assert.Empty(t, f.get(t, store.KeyUser))
	assert.Equal(t, 1, f.nav.count())
	assert.Equal(t, int32(1), b.refreshCalls.Load())
}

func TestMissingRefreshTokenForcesLogout(t *testing.T) {
	b := &fakeBackend{validAccess: "other"}
	f := newFixture(t, b)
	require.NoError(t, f.store.Set(context.Background(), store.KeyAccessToken, "A1"))

	_, err := f.client.AdminProfile(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(0), b.refreshCalls.Load())
	assert.Equal(t, 1, f.nav.count())
}

func TestRetryRejectedIsNotRefreshedAgain(t *testing.T) {
	// Refresh succeeds but issues a token the profile endpoint still rejects
	b := &fakeBackend{validAccess: "x", validRefresh: "R1", nextAccess: "A2"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == PathRefresh {
			b.refreshCalls.Add(1)
			writeJSON(w, map[string]any{"access": "A2"})
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "You do not have permission"}`))
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	nav := &recordingNav{}
	c := NewClient(srv.URL, session.New(st, nav), WithHTTPClient(srv.Client()))
	require.NoError(t, st.Set(context.Background(), store.KeyAccessToken, "A1"))
	require.NoError(t, st.Set(context.Background(), store.KeyRefreshToken, "R1"))

	_, err := c.AdminProfile(context.Background())
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Status)
	assert.Equal(t, "You do not have permission", he.Message)
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, 0, nav.count())
}

func TestConcurrentAuthFailuresRefreshOnce(t *testing.T) {
	b := &fakeBackend{validAccess: "stale", validRefresh: "R1", nextAccess: "A2", refreshDelay: 20 * time.Millisecond}
	f := newFixture(t, b)
	f.seed(t, "A1", "R1")

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.client.AdminProfile(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), b.refreshCalls.Load())
}

func TestCancelledWaiterLeavesRefreshRunning(t *testing.T) {
	b := &fakeBackend{validAccess: "stale", validRefresh: "R1", nextAccess: "A2", refreshDelay: 100 * time.Millisecond}
	f := newFixture(t, b)
	f.seed(t, "A1", "R1")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := f.client.AdminProfile(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Eventually(t, func() bool {
		return f.get(t, store.KeyAccessToken) == "A2"
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, f.nav.count())
}

func TestLogoutDuringRefreshWins(t *testing.T) {
	b := &fakeBackend{validAccess: "stale", validRefresh: "R1", nextAccess: "A2", refreshDelay: 50 * time.Millisecond}
	f := newFixture(t, b)
	f.seed(t, "A1", "R1")

	done := make(chan error, 1)
	go func() {
		_, err := f.client.AdminProfile(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, f.client.Session().Clear(context.Background()))

	err := <-done
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, f.get(t, store.KeyAccessToken), "refresh must not resurrect a cleared session")
}

func TestLogoutAlwaysClears(t *testing.T) {
	f := newFixture(t, &fakeBackend{})
	f.seed(t, "A1", "R1")

	require.NoError(t, f.client.Logout(context.Background()))
	assert.Empty(t, f.get(t, store.KeyAccessToken))
	assert.Empty(t, f.get(t, store.KeyRefreshToken))
	assert.Empty(t, f.get(t, store.KeyUser))
	assert.Equal(t, 1, f.nav.count())
}

func TestLogoutServerDownStillClears(t *testing.T) {
	st := store.NewMemoryStore()
	nav := &recordingNav{}
	c := NewClient("http://127.0.0.1:1", session.New(st, nav), WithTimeout(time.Second))
	require.NoError(t, st.Set(context.Background(), store.KeyAccessToken, "A1"))

	err := c.Logout(context.Background())
	require.ErrorIs(t, err, ErrNetwork)

	_, getErr := st.Get(context.Background(), store.KeyAccessToken)
	assert.ErrorIs(t, getErr, store.ErrNotFound)
	assert.Equal(t, 1, nav.count())
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, session.New(store.NewMemoryStore(), nil), WithTimeout(time.Second))
	_, err := c.WaitlistStats(context.Background())
	require.ErrorIs(t, err, ErrNetwork)

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "GET "+PathWaitlistStats, ne.Op)
}

func TestAnonymousRequestHasNoBearer(t *testing.T) {
	f := newFixture(t, &fakeBackend{})
	f.seed(t, "A1", "R1")

	stats, err := f.client.WaitlistStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, stats.Count)
}

func TestEmptyBodyNormalizes(t *testing.T) {
	f := newFixture(t, &fakeBackend{validAccess: "A1"})
	f.seed(t, "A1", "R1")

	require.NoError(t, f.client.ResetChatSession(context.Background(), "s-1"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "{}"},
		{"whitespace", "  \n", "{}"},
		{"not json", "<html>oops</html>", "{}"},
		{"envelope", `{"success": true, "data": {"count": 3}}`, `{"count": 3}`},
		{"bare data key", `{"data": [1,2]}`, `[1,2]`},
		{"plain object", `{"count": 3}`, `{"count": 3}`},
		{"data beside other keys", `{"data": 1, "page": 2}`, `{"data": 1, "page": 2}`},
		{"null data kept", `{"success": true, "data": null}`, `{"success": true, "data": null}`},
		{"array", `[1]`, `[1]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(normalize([]byte(tt.in))))
		})
	}
}

func TestNewHTTPError(t *testing.T) {
	t.Run("message precedence", func(t *testing.T) {
		he := newHTTPError(400, []byte(`{"detail": "d", "error": "e", "message": "m"}`))
		assert.Equal(t, "m", he.Message)

		he = newHTTPError(400, []byte(`{"detail": "d", "error": "e"}`))
		assert.Equal(t, "e", he.Message)
	})

	t.Run("field lists", func(t *testing.T) {
		he := newHTTPError(400, []byte(`{"email": ["already registered"], "name": "too long"}`))
		assert.Empty(t, he.Message)
		assert.Equal(t, "already registered", he.Field("email"))
		assert.Equal(t, "too long", he.Field("name"))
		assert.Equal(t, "400: already registered", he.Error())
	})

	t.Run("nested errors", func(t *testing.T) {
		he := newHTTPError(400, []byte(`{"success": false, "errors": {"email": ["bad"]}}`))
		assert.Equal(t, "bad", he.Field("email"))
	})

	t.Run("non json", func(t *testing.T) {
		he := newHTTPError(502, []byte("Bad Gateway"))
		assert.Empty(t, he.Message)
		assert.Equal(t, "fallback", he.MessageOr("fallback"))
		assert.Equal(t, "502: Bad Gateway", he.Error())
	})

	t.Run("auth", func(t *testing.T) {
		assert.True(t, newHTTPError(401, nil).IsAuth())
		assert.True(t, newHTTPError(403, nil).IsAuth())
		assert.False(t, newHTTPError(404, nil).IsAuth())
	})
}

func TestCancelledContextDoesNotLogout(t *testing.T) {
	b := &fakeBackend{validAccess: "stale", validRefresh: "R1", nextAccess: "A2", refreshDelay: 200 * time.Millisecond}
	f := newFixture(t, b)
	f.seed(t, "A1", "R1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.client.AdminProfile(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, f.nav.count())
	assert.Equal(t, "A1", f.get(t, store.KeyAccessToken))
}
