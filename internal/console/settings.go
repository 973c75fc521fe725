// ABOUTME: Settings console: concurrent load of profile, access and agent status
// ABOUTME: Plus optimistic profile save and the billing and privacy views

package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/session"
)

// Status values for the backend connection indicator.
const (
	StatusUnknown = "UNKNOWN"
	StatusOnline  = "ONLINE"
	StatusOffline = "OFFLINE"
)

// SettingsState is everything the settings view shows from the backend.
type SettingsState struct {
	Profile     api.UserProfile
	Access      api.AgentAccess
	AgentStatus api.AgentStatus
	Status      string
	APIOnline   bool
	APIError    string
	LoadedAt    time.Time
}

// Settings is the settings console.
type Settings struct {
	client *api.Client
	logger *slog.Logger

	mu    sync.Mutex
	state SettingsState
}

// NewSettings creates a Settings view with nothing loaded.
func NewSettings(client *api.Client) *Settings {
	return &Settings{
		client: client,
		logger: slog.Default().With("component", "settings"),
		state:  SettingsState{Status: StatusUnknown},
	}
}

// State returns a copy of the current view state.
func (s *Settings) State() SettingsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LoadAll reads profile, access and agent status concurrently. The first
// failure cancels the other reads and marks the backend offline.
func (s *Settings) LoadAll(ctx context.Context) (SettingsState, error) {
	var (
		profile *api.UserProfile
		access  *api.AgentAccess
		status  *api.AgentStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.client.UserProfile(gctx)
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		a, err := s.client.AgentAccess(gctx)
		if err != nil {
			return fmt.Errorf("loading agent access: %w", err)
		}
		access = a
		return nil
	})
	g.Go(func() error {
		st, err := s.client.AgentStatus(gctx)
		if err != nil {
			return fmt.Errorf("loading agent status: %w", err)
		}
		status = st
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return s.state, ctx.Err()
		}
		s.state.Status = StatusOffline
		s.state.APIOnline = false
		s.state.APIError = loadErrorText(err)
		s.logger.Warn("settings load failed", "error", err)
		return s.state, err
	}

	s.state = SettingsState{
		Profile:     *profile,
		Access:      *access,
		AgentStatus: *status,
		Status:      StatusOnline,
		APIOnline:   true,
		LoadedAt:    time.Now(),
	}
	return s.state, nil
}

func loadErrorText(err error) string {
	var he *api.HTTPError
	switch {
	case errors.Is(err, api.ErrSessionExpired):
		return MsgSessionExpired
	case errors.As(err, &he):
		return he.MessageOr(MsgNetworkError)
	default:
		return MsgNetworkError
	}
}

// SaveProfile updates the local profile first and then the backend. The
// local change is kept when the request fails.
func (s *Settings) SaveProfile(ctx context.Context, firstName, lastName string) (Notice, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	s.mu.Lock()
	s.state.Profile.FirstName = firstName
	s.state.Profile.LastName = lastName
	s.mu.Unlock()

	if err := s.client.UpdateProfile(ctx, firstName, lastName); err != nil {
		return failureNotice(err, "Update failed"), err
	}
	return okNotice("Profile updated ✓"), nil
}

// Plan is one billing tier.
type Plan struct {
	Name     string
	Price    string
	Features []string
	Active   bool
}

// Invoice is one billing history line.
type Invoice struct {
	ID     string
	Date   string
	Amount string
	Status string
}

// AgentBilling is the subscription shown for one agent.
type AgentBilling struct {
	Agent        api.AgentType
	Subscribed   bool
	Subscription api.AgentSubscription
}

// Billing is the billing view.
type Billing struct {
	CurrentPlan  string
	MonthlyCost  string
	Renews       string
	ActiveAgents int
	AgentLimit   int
	Plans        []Plan
	Agents       []AgentBilling
	Invoices     []Invoice
}

// Plans are the billing tiers on offer.
var Plans = []Plan{
	{Name: "Starter", Price: "$0/mo", Features: []string{"1 Agent", "100 docs/mo", "Community support"}},
	{Name: "Pro", Price: "$12/mo", Features: []string{"3 Agents", "5,000 docs/mo", "Priority support", "API access"}, Active: true},
	{Name: "Team", Price: "$49/mo", Features: []string{"Unlimited agents", "Unlimited docs", "Dedicated support", "SSO + SAML"}},
}

var invoices = []Invoice{
	{ID: "INV-2026-002", Date: "Feb 1, 2026", Amount: "$12.00", Status: "PAID"},
	{ID: "INV-2026-001", Date: "Jan 1, 2026", Amount: "$12.00", Status: "PAID"},
	{ID: "INV-2025-012", Date: "Dec 1, 2025", Amount: "$12.00", Status: "PAID"},
}

// Billing builds the billing view from the loaded access.
func (s *Settings) Billing() Billing {
	access := s.State().Access

	b := Billing{
		CurrentPlan: "Pro",
		MonthlyCost: "$12",
		Renews:      "Renews Mar 1, 2026",
		AgentLimit:  3,
		Plans:       append([]Plan(nil), Plans...),
		Invoices:    append([]Invoice(nil), invoices...),
	}
	add := func(agent api.AgentType, on bool, sub *api.AgentSubscription) {
		ab := AgentBilling{Agent: agent, Subscribed: on}
		if on {
			b.ActiveAgents++
			if sub != nil {
				ab.Subscription = *sub
			}
		}
		b.Agents = append(b.Agents, ab)
	}
	add(api.AgentMark, access.Marketing, access.MarketingSubscription)
	add(api.AgentHR, access.HR, access.HRSubscription)
	return b
}

// PrivacyView describes the stored credential without exposing it.
type PrivacyView struct {
	MaskedToken string
	HasToken    bool
	Subject     string
	ExpiresAt   time.Time
	Expired     bool
}

// Privacy builds the privacy view from the stored access token.
func (s *Settings) Privacy(ctx context.Context) (PrivacyView, error) {
	token, err := s.client.Session().AccessToken(ctx)
	if err != nil {
		return PrivacyView{}, fmt.Errorf("reading access token: %w", err)
	}
	if token == "" {
		return PrivacyView{}, nil
	}

	v := PrivacyView{MaskedToken: session.Mask(token), HasToken: true}
	if info, ok := session.Inspect(token); ok {
		v.Subject = info.Subject
		v.ExpiresAt = info.ExpiresAt
		v.Expired = info.Expired(time.Now())
	}
	return v, nil
}
