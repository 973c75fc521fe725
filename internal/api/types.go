// ABOUTME: Wire types for the SIA backend: profiles, tenants, agents, chat sessions, waitlist
// ABOUTME: Decoders accept the alias field names different backend versions have returned

package api

import (
	"encoding/json"
	"fmt"
)

// Endpoint paths
const (
	PathLogin           = "/api/auth/login/"
	PathRegister        = "/api/auth/register/"
	PathRefresh         = "/api/auth/refresh/"
	PathLogout          = "/api/auth/logout/"
	PathProfile         = "/api/auth/profile/"
	PathProfileUpdate   = "/api/auth/profile/update/"
	PathAccess          = "/api/auth/access/"
	PathSessionValidate = "/api/auth/session/validate/"
	PathTenants         = "/api/tenants/"
	PathAgentStatus     = "/api/tenants/v2/agents/status/"
	PathChat            = "/api/chat/"
	PathChatReset       = "/api/chat/session/reset/"
	PathChatClose       = "/api/chat/session/close/"
	PathWaitlistStats   = "/api/waitlist/stats/"
	PathWaitlistJoin    = "/api/waitlist/join/"
)

// TenantPath returns /api/tenants/{id}/.
func TenantPath(id string) string { return PathTenants + id + "/" }

// SubscriptionPath returns /api/tenants/{id}/subscription/.
func SubscriptionPath(id string) string { return TenantPath(id) + "subscription/" }

// TenantAgentsPath returns /api/tenants/{id}/agents/.
func TenantAgentsPath(id string) string { return TenantPath(id) + "agents/" }

// ChatSessionPath returns /api/chat/session/{id}/.
func ChatSessionPath(id string) string { return "/api/chat/session/" + id + "/" }

// AgentChatPath returns /api/tenants/v2/agents/{agent}/chat/.
func AgentChatPath(agent AgentType) string { return "/api/tenants/v2/agents/" + string(agent) + "/chat/" }

// Subscription is the set of agents a tenant pays for.
type Subscription string

const (
	SubscriptionMark Subscription = "mark"
	SubscriptionHR   Subscription = "hr"
	SubscriptionBoth Subscription = "both"
	SubscriptionNone Subscription = "none"
)

// ParseSubscription validates s.
func ParseSubscription(s string) (Subscription, error) {
	switch Subscription(s) {
	case SubscriptionMark, SubscriptionHR, SubscriptionBoth, SubscriptionNone:
		return Subscription(s), nil
	default:
		return "", fmt.Errorf("unknown subscription %q (use mark, hr, both, none)", s)
	}
}

// Label returns the badge text shown for a subscription.
func (s Subscription) Label() string {
	switch s {
	case SubscriptionBoth:
		return "MARK + HR"
	case SubscriptionMark:
		return "MARK"
	case SubscriptionHR:
		return "HR"
	default:
		return "NONE"
	}
}

// AgentType names one of the two backend assistants.
type AgentType string

const (
	AgentMark AgentType = "mark"
	AgentHR   AgentType = "hr"
)

// ParseAgentType validates s.
func ParseAgentType(s string) (AgentType, error) {
	switch AgentType(s) {
	case AgentMark, AgentHR:
		return AgentType(s), nil
	default:
		return "", fmt.Errorf("unknown agent %q (use mark or hr)", s)
	}
}

// AdminProfile is the profile of a staff user.
type AdminProfile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	Role        string `json:"role,omitempty"`
}

// DisplayName returns "First Last", falling back to the email.
func (p *AdminProfile) DisplayName() string {
	name := p.FirstName
	if p.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.LastName
	}
	if name == "" {
		return p.Email
	}
	return name
}

// UnmarshalJSON tolerates numeric ids.
func (p *AdminProfile) UnmarshalJSON(b []byte) error {
	type plain AdminProfile
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = AdminProfile(raw.plain)
	p.ID = flexString(raw.ID)
	return nil
}

// Tenant is a customer organization.
type Tenant struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Email            string       `json:"email"`
	SubscribedAgents Subscription `json:"subscribed_agents"`
	MonthlyQuota     int          `json:"monthly_quota"`
	SubscriptionEnd  *string      `json:"subscription_end"`
	IsActive         bool         `json:"is_active"`
	CreatedAt        string       `json:"created_at"`
}

// UnmarshalJSON tolerates numeric ids.
func (t *Tenant) UnmarshalJSON(b []byte) error {
	type plain Tenant
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Tenant(raw.plain)
	t.ID = flexString(raw.ID)
	return nil
}

// CreateTenantRequest is the body of POST /api/tenants/.
type CreateTenantRequest struct {
	Name             string       `json:"name"`
	Email            string       `json:"email"`
	SubscribedAgents Subscription `json:"subscribed_agents"`
	MonthlyQuota     int          `json:"monthly_quota"`
}

// UpdateSubscriptionRequest is the body of POST /api/tenants/{id}/subscription/.
type UpdateSubscriptionRequest struct {
	SubscribedAgents Subscription `json:"subscribed_agents"`
	SubscriptionEnd  string       `json:"subscription_end,omitempty"` // RFC3339
}

// ConfigureAgentRequest is the body of POST /api/tenants/{id}/agents/.
type ConfigureAgentRequest struct {
	AgentType      AgentType `json:"agent_type"`
	EndpointURL    string    `json:"endpoint_url"`
	TimeoutSeconds int       `json:"timeout_seconds"`
}

// AgentState is one agent's live status.
type AgentState struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint,omitempty"`
	Active   bool   `json:"active"`
}

// AgentStatus is the response of GET /api/tenants/v2/agents/status/.
type AgentStatus struct {
	Mark *AgentState `json:"mark,omitempty"`
	HR   *AgentState `json:"hr,omitempty"`
}

// UnmarshalJSON accepts {"mark": {...}, "hr": {...}} as well as the flat
// marketing_status/marketing_active/hr_status/hr_active form.
func (s *AgentStatus) UnmarshalJSON(b []byte) error {
	var raw struct {
		Mark            *AgentState `json:"mark"`
		HR              *AgentState `json:"hr"`
		MarketingStatus *string     `json:"marketing_status"`
		MarketingActive *bool       `json:"marketing_active"`
		HRStatus        *string     `json:"hr_status"`
		HRActive        *bool       `json:"hr_active"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Mark = raw.Mark
	if s.Mark == nil {
		s.Mark = flatState(raw.MarketingStatus, raw.MarketingActive)
	}
	s.HR = raw.HR
	if s.HR == nil {
		s.HR = flatState(raw.HRStatus, raw.HRActive)
	}
	return nil
}

func flatState(status *string, active *bool) *AgentState {
	st := &AgentState{Status: "Unknown"}
	if status != nil {
		st.Status = *status
	}
	if active != nil {
		st.Active = *active
	}
	return st
}

// AgentSubscription describes a paid agent plan.
type AgentSubscription struct {
	Plan   string `json:"plan"`
	Renews string `json:"renews"`
	Status string `json:"status"`
}

// defaultSubscription is assumed when access is granted without plan details.
var defaultSubscription = AgentSubscription{Plan: "Pro", Renews: "—", Status: "ACTIVE"}

// AgentAccess is the response of GET /api/auth/access/.
type AgentAccess struct {
	HR                    bool               `json:"hr"`
	Marketing             bool               `json:"marketing"`
	HRSubscription        *AgentSubscription `json:"hr_subscription,omitempty"`
	MarketingSubscription *AgentSubscription `json:"marketing_subscription,omitempty"`
}

// UnmarshalJSON accepts has_hr/can_access_hr and has_marketing/can_access_mark aliases.
func (a *AgentAccess) UnmarshalJSON(b []byte) error {
	var raw struct {
		HR                    *bool              `json:"hr"`
		HasHR                 *bool              `json:"has_hr"`
		CanAccessHR           *bool              `json:"can_access_hr"`
		Marketing             *bool              `json:"marketing"`
		HasMarketing          *bool              `json:"has_marketing"`
		CanAccessMark         *bool              `json:"can_access_mark"`
		HRSubscription        *AgentSubscription `json:"hr_subscription"`
		MarketingSubscription *AgentSubscription `json:"marketing_subscription"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	a.HR = firstBool(raw.HR, raw.HasHR, raw.CanAccessHR)
	a.Marketing = firstBool(raw.Marketing, raw.HasMarketing, raw.CanAccessMark)

	a.HRSubscription = raw.HRSubscription
	if a.HRSubscription == nil && a.HR {
		sub := defaultSubscription
		a.HRSubscription = &sub
	}
	a.MarketingSubscription = raw.MarketingSubscription
	if a.MarketingSubscription == nil && a.Marketing {
		sub := defaultSubscription
		a.MarketingSubscription = &sub
	}
	return nil
}

func firstBool(vals ...*bool) bool {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return false
}

// UserProfile is the settings-page view of the caller.
type UserProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
}

// ChatSession is the detail of one chat session.
type ChatSession struct {
	SessionID    string `json:"session_id"`
	UserName     string `json:"user_name,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
	MessageCount int    `json:"message_count,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	LastActive   string `json:"last_active,omitempty"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

// ChatRequest is the body of a chat message.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatReply is what an agent answered.
type ChatReply struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Agent     string `json:"agent,omitempty"`
}

// UnmarshalJSON accepts "response", "reply" or "message" for the text.
func (r *ChatReply) UnmarshalJSON(b []byte) error {
	var raw struct {
		SessionID string `json:"session_id"`
		Response  string `json:"response"`
		Reply     string `json:"reply"`
		Message   string `json:"message"`
		Agent     string `json:"agent"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.SessionID = raw.SessionID
	r.Response = firstNonEmpty(raw.Response, raw.Reply, raw.Message)
	r.Agent = raw.Agent
	return nil
}

// WaitlistStats is the response of GET /api/waitlist/stats/.
type WaitlistStats struct {
	Count int `json:"count"`
}

// LoginResult is what a successful login yields.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         json.RawMessage
}

// flexString renders a JSON string or number as a Go string.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return string(raw)
}
