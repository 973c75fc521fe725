// ABOUTME: Tenant management endpoints: list, create, detail, subscription, agent endpoints
// ABOUTME: Plus the live agent status probe shared with the settings view

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ListTenants returns all tenants. Accepts a bare array or a paginated {"results": [...]}.
func (c *Client) ListTenants(ctx context.Context) ([]Tenant, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathTenants})
	if err != nil {
		return nil, err
	}

	var tenants []Tenant
	if err := json.Unmarshal(unwrapKey(resp.Data, "results"), &tenants); err != nil {
		// Some deployments answer {} when there are no tenants
		var empty map[string]json.RawMessage
		if json.Unmarshal(resp.Data, &empty) == nil && len(empty) == 0 {
			return []Tenant{}, nil
		}
		return nil, fmt.Errorf("decoding tenants: %w", err)
	}
	if tenants == nil {
		tenants = []Tenant{}
	}
	return tenants, nil
}

// CreateTenant creates a tenant.
func (c *Client) CreateTenant(ctx context.Context, req CreateTenantRequest) (*Tenant, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: PathTenants, Body: req})
	if err != nil {
		return nil, err
	}
	var t Tenant
	if err := json.Unmarshal(unwrapKey(resp.Data, "tenant"), &t); err != nil {
		return nil, fmt.Errorf("decoding tenant: %w", err)
	}
	return &t, nil
}

// Tenant fetches one tenant.
func (c *Client) Tenant(ctx context.Context, id string) (*Tenant, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: TenantPath(url.PathEscape(id))})
	if err != nil {
		return nil, err
	}
	var t Tenant
	if err := json.Unmarshal(unwrapKey(resp.Data, "tenant"), &t); err != nil {
		return nil, fmt.Errorf("decoding tenant: %w", err)
	}
	return &t, nil
}

// UpdateSubscription changes a tenant's subscribed agents and end date.
func (c *Client) UpdateSubscription(ctx context.Context, id string, req UpdateSubscriptionRequest) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPost, Path: SubscriptionPath(url.PathEscape(id)), Body: req})
	return err
}

// ConfigureAgent points one of a tenant's agents at a webhook endpoint.
func (c *Client) ConfigureAgent(ctx context.Context, tenantID string, req ConfigureAgentRequest) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPost, Path: TenantAgentsPath(url.PathEscape(tenantID)), Body: req})
	return err
}

// AgentStatus fetches live agent status.
func (c *Client) AgentStatus(ctx context.Context) (*AgentStatus, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathAgentStatus})
	if err != nil {
		return nil, err
	}
	var s AgentStatus
	if err := resp.Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
