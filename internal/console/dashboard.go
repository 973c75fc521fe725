// ABOUTME: Admin dashboard actions: bootstrap, tenants, agents, profile, chat sessions, logout
// ABOUTME: Each action returns its value, a notice for the operator, and the underlying error

package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/guard"
	"github.com/2389/sia-console/internal/sounds"
	"github.com/2389/sia-console/internal/store"
)

// Known session list bounds
const (
	DefaultMaxKnownSessions = 50
	DefaultSessionFetch     = 20
)

// DashboardOptions tunes a Dashboard. Zero values use the defaults.
type DashboardOptions struct {
	MaxKnownSessions int
	SessionFetch     int
	// Player rings chat cues. Nil means silent.
	Player *sounds.Player
}

// Dashboard is the admin console over one authenticated client.
type Dashboard struct {
	client     *api.Client
	store      store.Store
	guard      *guard.Guard
	maxKnown   int
	fetchLimit int
	player     *sounds.Player
	logger     *slog.Logger
}

// NewDashboard creates a Dashboard. st holds the known-session list.
func NewDashboard(client *api.Client, st store.Store, opts DashboardOptions) *Dashboard {
	if opts.MaxKnownSessions <= 0 {
		opts.MaxKnownSessions = DefaultMaxKnownSessions
	}
	if opts.SessionFetch <= 0 {
		opts.SessionFetch = DefaultSessionFetch
	}
	return &Dashboard{
		client:     client,
		store:      st,
		guard:      guard.New(client),
		maxKnown:   opts.MaxKnownSessions,
		fetchLimit: opts.SessionFetch,
		player:     opts.Player,
		logger:     slog.Default().With("component", "dashboard"),
	}
}

// Overview is what the dashboard shows once the session is validated.
type Overview struct {
	Guard    *guard.Result
	Profile  *api.AdminProfile
	Tenants  []api.Tenant
	Stats    TenantStats
	Waitlist *api.WaitlistStats
	Access   *api.AgentAccess
	Notices  []Notice
}

// Bootstrap validates the session, then loads profile, tenants, waitlist
// stats and agent access together. Only a tenant load failure produces a
// notice; the other panels are left empty when their load fails.
func (d *Dashboard) Bootstrap(ctx context.Context) (*Overview, error) {
	res, err := d.guard.Bootstrap(ctx)
	if err != nil {
		return &Overview{Guard: res}, err
	}

	ov := &Overview{Guard: res}
	if res.Warning != "" {
		ov.Notices = append(ov.Notices, infoNotice(res.Warning))
	}

	var (
		mu      sync.Mutex
		expired error
	)
	record := func(err error) {
		if errors.Is(err, api.ErrSessionExpired) {
			mu.Lock()
			expired = err
			mu.Unlock()
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		p, err := d.client.AdminProfile(ctx)
		record(err)
		if err == nil {
			mu.Lock()
			ov.Profile = p
			mu.Unlock()
		}
		return nil
	})
	g.Go(func() error {
		tenants, notice, err := d.LoadTenants(ctx)
		record(err)
		mu.Lock()
		ov.Tenants = tenants
		ov.Stats = ComputeTenantStats(tenants)
		if !notice.Empty() && err != nil {
			ov.Notices = append(ov.Notices, notice)
		}
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		w, err := d.client.WaitlistStats(ctx)
		record(err)
		if err == nil {
			mu.Lock()
			ov.Waitlist = w
			mu.Unlock()
		}
		return nil
	})
	g.Go(func() error {
		a, err := d.client.AgentAccess(ctx)
		record(err)
		if err == nil {
			mu.Lock()
			ov.Access = a
			mu.Unlock()
		}
		return nil
	})
	_ = g.Wait()

	if expired != nil {
		return ov, expired
	}
	return ov, nil
}

// TenantStats summarises the tenant list.
type TenantStats struct {
	Total  int
	Active int
	Mark   int
	HR     int
}

// ComputeTenantStats counts tenants by state and subscribed agent.
func ComputeTenantStats(tenants []api.Tenant) TenantStats {
	var s TenantStats
	for _, t := range tenants {
		s.Total++
		if t.IsActive {
			s.Active++
		}
		switch t.SubscribedAgents {
		case api.SubscriptionBoth:
			s.Mark++
			s.HR++
		case api.SubscriptionMark:
			s.Mark++
		case api.SubscriptionHR:
			s.HR++
		}
	}
	return s
}

// LoadTenants fetches the tenant list.
func (d *Dashboard) LoadTenants(ctx context.Context) ([]api.Tenant, Notice, error) {
	tenants, err := d.client.ListTenants(ctx)
	if err != nil {
		return nil, fixedFailureNotice(err, "Failed to load tenants"), err
	}
	return tenants, Notice{}, nil
}

// TenantDetail fetches one tenant.
func (d *Dashboard) TenantDetail(ctx context.Context, id string) (*api.Tenant, Notice, error) {
	t, err := d.client.Tenant(ctx, id)
	if err != nil {
		return nil, fixedFailureNotice(err, "Failed to load tenant detail"), err
	}
	return t, Notice{}, nil
}

// CreateTenant validates form and creates the tenant.
func (d *Dashboard) CreateTenant(ctx context.Context, form TenantForm) (*api.Tenant, Notice, error) {
	req, err := form.Request()
	if err != nil {
		return nil, Notice{}, err
	}
	t, err := d.client.CreateTenant(ctx, req)
	if err != nil {
		return nil, failureNotice(err, "Create failed"), err
	}
	d.logger.Info("tenant created", "id", t.ID, "name", req.Name)
	return t, okNotice(fmt.Sprintf("Tenant %q created ✓", req.Name)), nil
}

// UpdateSubscription validates form and changes the tenant's subscription.
func (d *Dashboard) UpdateSubscription(ctx context.Context, tenantID string, form SubscriptionForm) (Notice, error) {
	if strings.TrimSpace(tenantID) == "" {
		err := &api.ValidationError{Fields: map[string]string{"tenant": ErrSelectTenant}}
		return Notice{}, err
	}
	req, err := form.Request()
	if err != nil {
		return Notice{}, err
	}
	if err := d.client.UpdateSubscription(ctx, tenantID, req); err != nil {
		return failureNotice(err, "Update failed"), err
	}
	return okNotice("Subscription updated ✓"), nil
}

// ConfigureAgent validates form and sets the agent endpoint.
func (d *Dashboard) ConfigureAgent(ctx context.Context, form AgentForm) (Notice, error) {
	tenantID, req, err := form.Request()
	if err != nil {
		return Notice{}, err
	}
	if err := d.client.ConfigureAgent(ctx, tenantID, req); err != nil {
		return failureNotice(err, "Config failed"), err
	}
	return okNotice("Agent endpoint configured ✓"), nil
}

// AgentStatus fetches live agent status.
func (d *Dashboard) AgentStatus(ctx context.Context) (*api.AgentStatus, Notice, error) {
	s, err := d.client.AgentStatus(ctx)
	if err != nil {
		return nil, fixedFailureNotice(err, "Could not fetch agent status"), err
	}
	return s, infoNotice(fmt.Sprintf("Mark: %s · HR: %s", stateLabel(s.Mark), stateLabel(s.HR))), nil
}

func stateLabel(st *api.AgentState) string {
	if st == nil || st.Status == "" {
		return "?"
	}
	return st.Status
}

// AgentAccess fetches the caller's agent subscriptions.
func (d *Dashboard) AgentAccess(ctx context.Context) (*api.AgentAccess, error) {
	return d.client.AgentAccess(ctx)
}

// Profile fetches the admin's profile.
func (d *Dashboard) Profile(ctx context.Context) (*api.AdminProfile, error) {
	return d.client.AdminProfile(ctx)
}

// UpdateProfile changes the admin's name.
func (d *Dashboard) UpdateProfile(ctx context.Context, firstName, lastName string) (Notice, error) {
	if err := d.client.UpdateProfile(ctx, strings.TrimSpace(firstName), strings.TrimSpace(lastName)); err != nil {
		return failureNotice(err, "Update failed"), err
	}
	return okNotice("Profile updated ✓"), nil
}

// Logout ends the session. Local credentials are always cleared; a failed
// server call is reported as an info notice only.
func (d *Dashboard) Logout(ctx context.Context) (Notice, error) {
	if err := d.client.Logout(ctx); err != nil {
		d.logger.Warn("server logout failed, local session cleared", "error", err)
		if errors.Is(err, api.ErrNetwork) || errors.As(err, new(*api.HTTPError)) {
			return infoNotice("Logged out locally"), nil
		}
		return Notice{}, err
	}
	return okNotice("Logged out ✓"), nil
}
