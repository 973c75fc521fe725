// ABOUTME: Tests for the session bootstrap guard against the mock backend
// ABOUTME: Covers redirect without token, offline degradation, refresh, and forced logout

package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/mockapi"
	"github.com/2389/sia-console/internal/session"
	"github.com/2389/sia-console/internal/store"
)

type recordingNavigator struct {
	mu      sync.Mutex
	reasons []string
}

func (n *recordingNavigator) ToEntry(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *recordingNavigator) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reasons)
}

func setup(t *testing.T, baseURL string) (*Guard, *api.Client, store.Store, *recordingNavigator) {
	t.Helper()
	st := store.NewMemoryStore()
	nav := &recordingNavigator{}
	client := api.NewClient(baseURL, session.New(st, nav), api.WithTimeout(2*time.Second))
	return New(client), client, st, nav
}

func TestBootstrapWithoutTokenRedirects(t *testing.T) {
	h := mockapi.NewHarness(t)
	g, _, _, nav := setup(t, h.URL)

	res, err := g.Bootstrap(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
	assert.Equal(t, StateRedirected, res.State)
	assert.Equal(t, 1, nav.calls())
	assert.Equal(t, 0, h.RefreshCalls())
}

func TestBootstrapValidSession(t *testing.T) {
	h := mockapi.NewHarness(t)
	g, client, _, nav := setup(t, h.URL)
	ctx := context.Background()

	_, err := client.Login(ctx, mockapi.HarnessEmail, mockapi.HarnessPassword)
	require.NoError(t, err)

	res, err := g.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReady, res.State)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.Warning)
	assert.Equal(t, 0, nav.calls())
}

func TestBootstrapRefreshesExpiredToken(t *testing.T) {
	h := mockapi.NewHarness(t)
	g, client, st, nav := setup(t, h.URL)
	ctx := context.Background()

	login, err := client.Login(ctx, mockapi.HarnessEmail, mockapi.HarnessPassword)
	require.NoError(t, err)
	h.ExpireAccessTokens()

	res, err := g.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReady, res.State)
	assert.Equal(t, 1, h.RefreshCalls())
	assert.Equal(t, 0, nav.calls())

	access, err := st.Get(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.AccessToken, access)

	refresh, err := st.Get(ctx, store.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, login.RefreshToken, refresh)
}

func TestBootstrapRefreshFailureLogsOut(t *testing.T) {
	h := mockapi.NewHarness(t)
	g, client, st, nav := setup(t, h.URL)
	ctx := context.Background()

	_, err := client.Login(ctx, mockapi.HarnessEmail, mockapi.HarnessPassword)
	require.NoError(t, err)
	h.ExpireAccessTokens()
	h.RevokeRefreshTokens()

	res, err := g.Bootstrap(ctx)
	require.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Equal(t, StateRedirected, res.State)
	assert.Equal(t, 1, nav.calls())

	for _, key := range store.CredentialKeys {
		_, err := st.Get(ctx, key)
		assert.ErrorIs(t, err, store.ErrNotFound, key)
	}
}

func TestBootstrapNetworkErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g, _, st, nav := setup(t, url)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, store.KeyAccessToken, "A1"))

	res, err := g.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReady, res.State)
	assert.True(t, res.Degraded)
	assert.Equal(t, OfflineWarning, res.Warning)
	assert.Equal(t, 0, nav.calls())

	// Token untouched while offline
	v, err := st.Get(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "A1", v)
}

func TestBootstrapServerErrorKeepsSession(t *testing.T) {
	h := mockapi.NewHarness(t)
	g, client, st, nav := setup(t, h.URL)
	ctx := context.Background()

	login, err := client.Login(ctx, mockapi.HarnessEmail, mockapi.HarnessPassword)
	require.NoError(t, err)
	h.FailEndpoint(http.MethodGet, api.PathSessionValidate, http.StatusServiceUnavailable, `{"detail":"Down for maintenance"}`)

	res, err := g.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReady, res.State)
	assert.True(t, res.Degraded)
	assert.Equal(t, "Session validation failed: Down for maintenance", res.Warning)
	assert.Equal(t, 0, nav.calls())
	assert.Equal(t, 0, h.RefreshCalls())

	access, err := st.Get(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, login.AccessToken, access)
	refresh, err := st.Get(ctx, store.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, login.RefreshToken, refresh)

	// Backend recovered: the same credentials validate
	h.ClearFailures()
	res, err = g.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
}

func TestBootstrapServerErrorWithoutMessage(t *testing.T) {
	h := mockapi.NewHarness(t)
	g, client, _, _ := setup(t, h.URL)
	ctx := context.Background()

	_, err := client.Login(ctx, mockapi.HarnessEmail, mockapi.HarnessPassword)
	require.NoError(t, err)
	h.FailEndpoint(http.MethodGet, api.PathSessionValidate, http.StatusBadGateway, `{}`)

	res, err := g.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Session validation failed: Bad Gateway", res.Warning)
}

func TestBootstrapRejectedAfterRefreshLogsOut(t *testing.T) {
	h := mockapi.NewHarness(t)
	g, client, st, nav := setup(t, h.URL)
	ctx := context.Background()

	_, err := client.Login(ctx, mockapi.HarnessEmail, mockapi.HarnessPassword)
	require.NoError(t, err)
	h.FailEndpoint(http.MethodGet, api.PathSessionValidate, http.StatusUnauthorized, "")

	res, err := g.Bootstrap(ctx)
	require.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Equal(t, StateRedirected, res.State)
	assert.Equal(t, 1, h.RefreshCalls())
	assert.Equal(t, 1, nav.calls())

	for _, key := range store.CredentialKeys {
		_, err := st.Get(ctx, key)
		assert.ErrorIs(t, err, store.ErrNotFound, key)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "validating", StateValidating.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "redirected", StateRedirected.String())
}
