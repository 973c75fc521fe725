// ABOUTME: Tests for the dashboard and chat console actions against the mock backend
// ABOUTME: Checks notices, form validation, known-session tracking and bootstrap

package console

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/guard"
	"github.com/2389/sia-console/internal/mockapi"
	"github.com/2389/sia-console/internal/session"
	"github.com/2389/sia-console/internal/sounds"
	"github.com/2389/sia-console/internal/store"
)

type fixture struct {
	h      *mockapi.Harness
	client *api.Client
	store  store.Store
	dash   *Dashboard
	bells  *bytes.Buffer
}

func newFixture(t *testing.T, loggedIn bool) *fixture {
	t.Helper()
	h := mockapi.NewHarness(t)
	st := store.NewMemoryStore()
	client := api.NewClient(h.URL, session.New(st, nil), api.WithTimeout(2*time.Second))

	var bells bytes.Buffer
	player := sounds.NewPlayer(&bells)
	player.SetVolume(1)

	if loggedIn {
		_, err := client.Login(context.Background(), mockapi.HarnessEmail, mockapi.HarnessPassword)
		require.NoError(t, err)
	}
	return &fixture{
		h:      h,
		client: client,
		store:  st,
		dash:   NewDashboard(client, st, DashboardOptions{Player: player}),
		bells:  &bells,
	}
}

func TestBootstrapLoadsOverview(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, _, err := f.dash.CreateTenant(ctx, TenantForm{Name: "Acme", Email: "ops@acme.test", Subscription: "mark", MonthlyQuota: "100"})
	require.NoError(t, err)

	ov, err := f.dash.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, guard.StateReady, ov.Guard.State)
	require.NotNil(t, ov.Profile)
	assert.Equal(t, "Ada Admin", ov.Profile.DisplayName())
	require.Len(t, ov.Tenants, 1)
	assert.Equal(t, TenantStats{Total: 1, Active: 1, Mark: 1}, ov.Stats)
	require.NotNil(t, ov.Waitlist)
	require.NotNil(t, ov.Access)
	assert.True(t, ov.Access.HR)
	assert.Empty(t, ov.Notices)
}

func TestBootstrapWithoutSession(t *testing.T) {
	f := newFixture(t, false)

	ov, err := f.dash.Bootstrap(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
	assert.Equal(t, guard.StateRedirected, ov.Guard.State)
	assert.Nil(t, ov.Profile)
}

func TestBootstrapValidateServerErrorDegrades(t *testing.T) {
	f := newFixture(t, true)
	f.h.FailEndpoint(http.MethodGet, api.PathSessionValidate, http.StatusServiceUnavailable, `{"detail":"Down for maintenance"}`)

	ov, err := f.dash.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, guard.StateReady, ov.Guard.State)
	assert.True(t, ov.Guard.Degraded)
	require.Len(t, ov.Notices, 1)
	assert.Equal(t, KindInfo, ov.Notices[0].Kind)
	assert.Equal(t, "Session validation failed: Down for maintenance", ov.Notices[0].Message)
	require.NotNil(t, ov.Profile, "panels still load with the kept credentials")
}

func TestBootstrapTenantFailureNotice(t *testing.T) {
	f := newFixture(t, true)
	f.h.FailEndpoint(http.MethodGet, api.PathTenants, http.StatusInternalServerError, `{"detail":"boom"}`)

	ov, err := f.dash.Bootstrap(context.Background())
	require.NoError(t, err)
	require.Len(t, ov.Notices, 1)
	assert.Equal(t, KindErr, ov.Notices[0].Kind)
	assert.Equal(t, "Failed to load tenants", ov.Notices[0].Message)
	assert.NotNil(t, ov.Profile)
}

func TestCreateTenant(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	form := NewTenantForm()
	form.Name = "Acme"
	form.Email = "ops@acme.test"

	tenant, notice, err := f.dash.CreateTenant(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, KindOK, notice.Kind)
	assert.Equal(t, `Tenant "Acme" created ✓`, notice.Message)
	assert.Equal(t, api.SubscriptionBoth, tenant.SubscribedAgents)
	assert.Equal(t, 5000, tenant.MonthlyQuota)

	got, notice, err := f.dash.TenantDetail(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, notice.Empty())
	assert.Equal(t, "Acme", got.Name)
}

func TestCreateTenantValidation(t *testing.T) {
	f := newFixture(t, true)

	_, notice, err := f.dash.CreateTenant(context.Background(), TenantForm{MonthlyQuota: "lots"})
	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrRequired, ve.Field("name"))
	assert.Equal(t, ErrRequired, ve.Field("email"))
	assert.Equal(t, ErrNumberRequired, ve.Field("monthly_quota"))
	assert.True(t, notice.Empty())

	tenants, _, err := f.dash.LoadTenants(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestCreateTenantServerRejection(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	form := TenantForm{Name: "Acme", Email: "ops@acme.test", MonthlyQuota: "10"}
	_, _, err := f.dash.CreateTenant(ctx, form)
	require.NoError(t, err)

	_, notice, err := f.dash.CreateTenant(ctx, form)
	var he *api.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "tenant with this email already exists.", he.Field("email"))
	assert.Equal(t, KindErr, notice.Kind)
	assert.Equal(t, "Create failed", notice.Message)
}

func TestCreateTenantServerMessage(t *testing.T) {
	f := newFixture(t, true)
	f.h.FailEndpoint(http.MethodPost, api.PathTenants, http.StatusConflict, `{"message":"Tenant quota reached"}`)

	_, notice, err := f.dash.CreateTenant(context.Background(), TenantForm{Name: "A", Email: "a@a.test", MonthlyQuota: "1"})
	require.Error(t, err)
	assert.Equal(t, "Tenant quota reached", notice.Message)
}

func TestUpdateSubscription(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tenant, _, err := f.dash.CreateTenant(ctx, TenantForm{Name: "Acme", Email: "ops@acme.test", MonthlyQuota: "10"})
	require.NoError(t, err)

	notice, err := f.dash.UpdateSubscription(ctx, tenant.ID, SubscriptionForm{Subscription: "hr", End: "2027-01-31"})
	require.NoError(t, err)
	assert.Equal(t, "Subscription updated ✓", notice.Message)

	got, _, err := f.dash.TenantDetail(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, api.SubscriptionHR, got.SubscribedAgents)
	require.NotNil(t, got.SubscriptionEnd)
	assert.Contains(t, *got.SubscriptionEnd, "2027-01-31")

	_, err = f.dash.UpdateSubscription(ctx, "", SubscriptionForm{Subscription: "hr"})
	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrSelectTenant, ve.Field("tenant"))
}

func TestConfigureAgentAndStatus(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, notice, err := f.dash.AgentStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindInfo, notice.Kind)
	assert.Equal(t, "Mark: Offline · HR: Offline", notice.Message)

	tenant, _, err := f.dash.CreateTenant(ctx, TenantForm{Name: "Acme", Email: "ops@acme.test", MonthlyQuota: "10"})
	require.NoError(t, err)

	_, err = f.dash.ConfigureAgent(ctx, AgentForm{})
	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrSelectTenant, ve.Field("tenant"))
	assert.Equal(t, ErrEndpointURL, ve.Field("endpoint_url"))

	notice, err = f.dash.ConfigureAgent(ctx, AgentForm{TenantID: tenant.ID, EndpointURL: "https://agents.acme.test/mark"})
	require.NoError(t, err)
	assert.Equal(t, "Agent endpoint configured ✓", notice.Message)

	status, notice, err := f.dash.AgentStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Mark.Active)
	assert.Equal(t, "Mark: Online · HR: Offline", notice.Message)
}

func TestAgentStatusFailure(t *testing.T) {
	f := newFixture(t, true)
	f.h.FailEndpoint(http.MethodGet, api.PathAgentStatus, http.StatusBadGateway, `{"message":"upstream"}`)

	_, notice, err := f.dash.AgentStatus(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Could not fetch agent status", notice.Message)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	notice, err := f.dash.UpdateProfile(ctx, " Grace ", "Hopper")
	require.NoError(t, err)
	assert.Equal(t, "Profile updated ✓", notice.Message)

	p, err := f.dash.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", p.DisplayName())
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	reply, notice, err := f.dash.Chat(ctx, api.AgentMark, "hello", "")
	require.NoError(t, err)
	assert.True(t, notice.Empty())
	assert.Equal(t, "[MARK] received: hello", reply.Response)
	require.NotEmpty(t, reply.SessionID)
	assert.Equal(t, "\a\a\a", f.bells.String())

	ids, err := f.dash.KnownSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{reply.SessionID}, ids)

	sessions, err := f.dash.KnownSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].MessageCount)

	notice, err = f.dash.ResetSession(ctx, reply.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Session reset ✓", notice.Message)

	notice, err = f.dash.CloseSession(ctx, reply.SessionID, false)
	require.NoError(t, err)
	assert.Equal(t, "Session closed ✓", notice.Message)

	ids, err = f.dash.KnownSessionIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestKnownSessionsSkipsMissing(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	reply, _, err := f.dash.Chat(ctx, "", "hi", "")
	require.NoError(t, err)
	require.NoError(t, f.dash.TrackSession(ctx, "deleted-elsewhere"))

	sessions, err := f.dash.KnownSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, reply.SessionID, sessions[0].SessionID)
}

func TestViewSessionTracksID(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	reply, _, err := f.dash.Chat(ctx, api.AgentHR, "hi", "fixed-id")
	require.NoError(t, err)
	require.Equal(t, "fixed-id", reply.SessionID)
	require.NoError(t, f.store.RemoveKnownSession(ctx, "fixed-id"))

	s, notice, err := f.dash.ViewSession(ctx, "fixed-id")
	require.NoError(t, err)
	assert.True(t, notice.Empty())
	assert.Equal(t, "fixed-id", s.SessionID)

	ids, err := f.dash.KnownSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fixed-id"}, ids)

	_, notice, err = f.dash.ViewSession(ctx, "nope")
	require.Error(t, err)
	assert.Equal(t, "Failed to load session", notice.Message)
}

func TestResetAndCloseFailuresUseFixedText(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	notice, err := f.dash.ResetSession(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, "Reset failed", notice.Message)

	notice, err = f.dash.CloseSession(ctx, "missing", true)
	require.Error(t, err)
	assert.Equal(t, "Close failed", notice.Message)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	reply, _, err := f.dash.Chat(ctx, api.AgentMark, "hello", "")
	require.NoError(t, err)

	notice, err := f.dash.CloseSession(ctx, reply.SessionID, true)
	require.NoError(t, err)
	assert.Equal(t, "Session deleted ✓", notice.Message)

	_, _, err = f.dash.ViewSession(ctx, reply.SessionID)
	var he *api.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestChatWithoutSubscription(t *testing.T) {
	f := newFixture(t, true)
	f.h.SetAccess(mockapi.HarnessEmail, false, false)

	_, notice, err := f.dash.Chat(context.Background(), api.AgentHR, "hi", "")
	var he *api.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusPaymentRequired, he.Status)
	assert.Equal(t, "No active HR subscription.", notice.Message)

	ids, err := f.dash.KnownSessionIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestChatRequiresMessage(t *testing.T) {
	f := newFixture(t, true)

	_, _, err := f.dash.Chat(context.Background(), api.AgentMark, "  ", "")
	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrRequired, ve.Field("message"))
}

func TestExpiredSessionNotice(t *testing.T) {
	f := newFixture(t, true)
	f.h.ExpireAccessTokens()
	f.h.RevokeRefreshTokens()

	_, notice, err := f.dash.LoadTenants(context.Background())
	require.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Equal(t, KindInfo, notice.Kind)
	assert.Equal(t, MsgSessionExpired, notice.Message)
}

func TestLogout(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	notice, err := f.dash.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindOK, notice.Kind)

	token, err := f.client.Session().AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLogoutServerDown(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.h.HTTP.Close()

	notice, err := f.dash.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindInfo, notice.Kind)

	token, err := f.client.Session().AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestNoticeExpiry(t *testing.T) {
	n := okNotice("done")
	assert.False(t, n.Expired(n.At.Add(time.Second)))
	assert.True(t, n.Expired(n.At.Add(NoticeTTL)))
	assert.True(t, Notice{}.Empty())
}

func TestComputeTenantStats(t *testing.T) {
	stats := ComputeTenantStats([]api.Tenant{
		{SubscribedAgents: api.SubscriptionBoth, IsActive: true},
		{SubscribedAgents: api.SubscriptionHR, IsActive: true},
		{SubscribedAgents: api.SubscriptionNone},
	})
	assert.Equal(t, TenantStats{Total: 3, Active: 2, Mark: 1, HR: 2}, stats)
}
