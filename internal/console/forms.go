// ABOUTME: Operator input forms for tenant, subscription and agent actions
// ABOUTME: Validation happens here, before any request is sent

package console

import (
	"strconv"
	"strings"
	"time"

	"github.com/2389/sia-console/internal/api"
)

// Field error texts
const (
	ErrRequired       = "Required"
	ErrNumberRequired = "Valid number required"
	ErrSelectTenant   = "Select a tenant"
	ErrEndpointURL    = "Endpoint URL required"
)

// Form defaults
const (
	DefaultSubscription   = api.SubscriptionBoth
	DefaultMonthlyQuota   = "5000"
	DefaultTimeoutSeconds = 30
)

// TenantForm is the input for creating a tenant.
type TenantForm struct {
	Name         string
	Email        string
	Subscription string
	MonthlyQuota string
}

// NewTenantForm returns a form holding the defaults.
func NewTenantForm() TenantForm {
	return TenantForm{Subscription: string(DefaultSubscription), MonthlyQuota: DefaultMonthlyQuota}
}

// Request validates the form and builds the create request.
func (f TenantForm) Request() (api.CreateTenantRequest, error) {
	fields := map[string]string{}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		fields["name"] = ErrRequired
	}
	email := strings.TrimSpace(f.Email)
	if email == "" {
		fields["email"] = ErrRequired
	}
	quota, err := strconv.Atoi(strings.TrimSpace(f.MonthlyQuota))
	if err != nil {
		fields["monthly_quota"] = ErrNumberRequired
	}

	sub := DefaultSubscription
	if f.Subscription != "" {
		parsed, err := api.ParseSubscription(strings.ToLower(f.Subscription))
		if err != nil {
			fields["subscribed_agents"] = "Choose mark, hr, both or none"
		}
		sub = parsed
	}

	if len(fields) > 0 {
		return api.CreateTenantRequest{}, &api.ValidationError{Fields: fields}
	}
	return api.CreateTenantRequest{
		Name:             name,
		Email:            email,
		SubscribedAgents: sub,
		MonthlyQuota:     quota,
	}, nil
}

// SubscriptionForm is the input for changing a tenant's subscription.
type SubscriptionForm struct {
	Subscription string
	// End is optional: YYYY-MM-DD or RFC 3339.
	End string
}

// Request validates the form. The end date is sent as RFC 3339 in UTC.
func (f SubscriptionForm) Request() (api.UpdateSubscriptionRequest, error) {
	fields := map[string]string{}

	sub, err := api.ParseSubscription(strings.ToLower(strings.TrimSpace(f.Subscription)))
	if err != nil {
		fields["subscribed_agents"] = "Choose mark, hr, both or none"
	}

	var end string
	if s := strings.TrimSpace(f.End); s != "" {
		t, err := parseDate(s)
		if err != nil {
			fields["subscription_end"] = "Use YYYY-MM-DD"
		} else {
			end = t.UTC().Format(time.RFC3339)
		}
	}

	if len(fields) > 0 {
		return api.UpdateSubscriptionRequest{}, &api.ValidationError{Fields: fields}
	}
	return api.UpdateSubscriptionRequest{SubscribedAgents: sub, SubscriptionEnd: end}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// AgentForm is the input for pointing a tenant's agent at an endpoint.
type AgentForm struct {
	TenantID       string
	AgentType      string
	EndpointURL    string
	TimeoutSeconds string
}

// Request validates the form. Agent defaults to mark and timeout to 30 seconds.
func (f AgentForm) Request() (tenantID string, req api.ConfigureAgentRequest, err error) {
	fields := map[string]string{}

	tenantID = strings.TrimSpace(f.TenantID)
	if tenantID == "" {
		fields["tenant"] = ErrSelectTenant
	}
	endpoint := strings.TrimSpace(f.EndpointURL)
	if endpoint == "" {
		fields["endpoint_url"] = ErrEndpointURL
	}

	agent := api.AgentMark
	if f.AgentType != "" {
		parsed, perr := api.ParseAgentType(strings.ToLower(f.AgentType))
		if perr != nil {
			fields["agent_type"] = "Choose mark or hr"
		}
		agent = parsed
	}

	timeout := DefaultTimeoutSeconds
	if s := strings.TrimSpace(f.TimeoutSeconds); s != "" {
		n, aerr := strconv.Atoi(s)
		if aerr != nil || n <= 0 {
			fields["timeout_seconds"] = ErrNumberRequired
		}
		timeout = n
	}

	if len(fields) > 0 {
		return "", api.ConfigureAgentRequest{}, &api.ValidationError{Fields: fields}
	}
	return tenantID, api.ConfigureAgentRequest{
		AgentType:      agent,
		EndpointURL:    endpoint,
		TimeoutSeconds: timeout,
	}, nil
}
