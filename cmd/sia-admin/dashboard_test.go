// ABOUTME: Tests for the dashboard command against the mock backend
// ABOUTME: Covers the loaded overview, a degraded validation and a missing session

package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/console"
	"github.com/2389/sia-console/internal/mockapi"
	"github.com/2389/sia-console/internal/session"
	"github.com/2389/sia-console/internal/sounds"
	"github.com/2389/sia-console/internal/store"
)

func newTestApp(t *testing.T, loggedIn bool) (*app, *mockapi.Harness) {
	t.Helper()
	h := mockapi.NewHarness(t)
	st := store.NewMemoryStore()
	client := api.NewClient(h.URL, session.New(st, nil), api.WithTimeout(2*time.Second))
	if loggedIn {
		_, err := client.Login(context.Background(), mockapi.HarnessEmail, mockapi.HarnessPassword)
		require.NoError(t, err)
	}
	player := sounds.NewPlayer(nil)
	player.SetEnabled(false)
	return &app{
		store:    st,
		client:   client,
		dash:     console.NewDashboard(client, st, console.DashboardOptions{Player: player}),
		settings: console.NewSettings(client),
		player:   player,
	}, h
}

func TestDashboardCommand(t *testing.T) {
	a, _ := newTestApp(t, true)
	ctx := context.Background()

	_, _, err := a.dash.CreateTenant(ctx, console.TenantForm{Name: "Acme", Email: "ops@acme.test", Subscription: "both", MonthlyQuota: "100"})
	require.NoError(t, err)

	assert.NoError(t, a.cmdDashboard(ctx))
}

func TestDashboardCommandDegradedValidation(t *testing.T) {
	a, h := newTestApp(t, true)
	h.FailEndpoint(http.MethodGet, api.PathSessionValidate, http.StatusServiceUnavailable, "")

	assert.NoError(t, a.cmdDashboard(context.Background()))

	token, err := a.client.Session().AccessToken(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestDashboardCommandWithoutSession(t *testing.T) {
	a, _ := newTestApp(t, false)

	assert.ErrorIs(t, a.cmdDashboard(context.Background()), errReported)
}
