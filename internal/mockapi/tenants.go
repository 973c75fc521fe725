// ABOUTME: Mock tenant endpoints: list, create, detail, subscription, agent configuration
// ABOUTME: Agent status reports an agent online once any tenant has an endpoint for it

package mockapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2389/sia-console/internal/api"
)

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request, _ *user) {
	s.mu.Lock()
	results := make([]api.Tenant, 0, len(s.tenantOrder))
	for _, id := range s.tenantOrder {
		results = append(results, s.tenants[id].Tenant)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"count": len(results), "results": results})
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request, _ *user) {
	var req api.CreateTenantRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"detail": "Invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	fields := map[string]any{}
	if req.Name == "" {
		fields["name"] = []string{"This field is required."}
	}
	if !api.ValidEmail(req.Email) {
		fields["email"] = []string{"Enter a valid email address."}
	}
	if req.MonthlyQuota < 0 {
		fields["monthly_quota"] = []string{"Ensure this value is greater than or equal to 0."}
	}
	if req.SubscribedAgents == "" {
		req.SubscribedAgents = api.SubscriptionBoth
	}
	if _, err := api.ParseSubscription(string(req.SubscribedAgents)); err != nil {
		fields["subscribed_agents"] = []string{"Not a valid choice."}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if t.Email == req.Email && req.Email != "" {
			fields["email"] = []string{"tenant with this email already exists."}
			break
		}
	}
	if len(fields) > 0 {
		writeError(w, http.StatusBadRequest, fields)
		return
	}

	t := &tenant{
		Tenant: api.Tenant{
			ID:               newID(),
			Name:             req.Name,
			Email:            req.Email,
			SubscribedAgents: req.SubscribedAgents,
			MonthlyQuota:     req.MonthlyQuota,
			IsActive:         true,
			CreatedAt:        time.Now().UTC().Format(time.RFC3339),
		},
		Agents: make(map[api.AgentType]api.ConfigureAgentRequest),
	}
	s.tenants[t.ID] = t
	s.tenantOrder = append(s.tenantOrder, t.ID)

	writeJSON(w, http.StatusCreated, t.Tenant)
}

// lookupTenant returns the tenant named by the {id} path value. Caller holds s.mu.
func (s *Server) lookupTenant(w http.ResponseWriter, r *http.Request) *tenant {
	t := s.tenants[r.PathValue("id")]
	if t == nil {
		writeError(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
	}
	return t
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request, _ *user) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookupTenant(w, r)
	if t == nil {
		return
	}
	writeJSON(w, http.StatusOK, t.Tenant)
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request, _ *user) {
	var req api.UpdateSubscriptionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"detail": "Invalid request body"})
		return
	}
	if _, err := api.ParseSubscription(string(req.SubscribedAgents)); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"subscribed_agents": []string{"Not a valid choice."}})
		return
	}
	var end *string
	if req.SubscriptionEnd != "" {
		if _, err := time.Parse(time.RFC3339, req.SubscriptionEnd); err != nil {
			writeError(w, http.StatusBadRequest, map[string]any{"subscription_end": []string{"Datetime has wrong format."}})
			return
		}
		v := req.SubscriptionEnd
		end = &v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookupTenant(w, r)
	if t == nil {
		return
	}
	t.SubscribedAgents = req.SubscribedAgents
	t.SubscriptionEnd = end
	writeJSON(w, http.StatusOK, map[string]any{"message": "Subscription updated", "tenant": t.Tenant})
}

func (s *Server) handleConfigureAgent(w http.ResponseWriter, r *http.Request, _ *user) {
	var req api.ConfigureAgentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"detail": "Invalid request body"})
		return
	}
	if _, err := api.ParseAgentType(string(req.AgentType)); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"agent_type": []string{"Not a valid choice."}})
		return
	}
	if u, err := url.Parse(req.EndpointURL); err != nil || u.Scheme == "" || u.Host == "" {
		writeError(w, http.StatusBadRequest, map[string]any{"endpoint_url": []string{"Enter a valid URL."}})
		return
	}
	if req.TimeoutSeconds <= 0 {
		req.TimeoutSeconds = 30
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookupTenant(w, r)
	if t == nil {
		return
	}
	t.Agents[req.AgentType] = req
	writeJSON(w, http.StatusOK, map[string]any{"message": "Agent configured"})
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request, _ *user) {
	s.mu.Lock()
	mark := s.agentConfigured(api.AgentMark)
	hr := s.agentConfigured(api.AgentHR)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"marketing_status": statusLabel(mark),
		"marketing_active": mark,
		"hr_status":        statusLabel(hr),
		"hr_active":        hr,
	})
}

// agentConfigured reports whether any active tenant has an endpoint for agent. Caller holds s.mu.
func (s *Server) agentConfigured(agent api.AgentType) bool {
	for _, t := range s.tenants {
		if _, ok := t.Agents[agent]; ok && t.IsActive {
			return true
		}
	}
	return false
}

func statusLabel(online bool) string {
	if online {
		return "Online"
	}
	return "Offline"
}
