// ABOUTME: Catalogue of backend endpoints shown in the settings API explorer
// ABOUTME: Rendered as a colored terminal table, as Markdown, or as HTML through goldmark

package apiref

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/sia-console/internal/api"
)

// Endpoint is one documented backend route.
type Endpoint struct {
	Group       string
	Method      string
	Path        string
	Body        string
	Description string
}

// URL joins baseURL and the endpoint path, the string the explorer copies.
func (e Endpoint) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + e.Path
}

const bearer = "Bearer token required"

// Catalogue returns every documented endpoint, grouped and in display order.
func Catalogue() []Endpoint {
	return []Endpoint{
		{"Authentication", "POST", api.PathRegister, "{ email, password, first_name, last_name }", "Create new user account"},
		{"Authentication", "POST", api.PathLogin, "{ email, password }", "Returns access_token + refresh_token"},
		{"Authentication", "POST", api.PathRefresh, "{ refresh_token }", "Refresh expired access token"},
		{"Authentication", "POST", api.PathLogout, bearer, "Revoke current session"},
		{"Authentication", "GET", api.PathProfile, bearer, "Get user profile data"},
		{"Authentication", "PUT", api.PathProfileUpdate, "{ first_name, last_name }", "Update profile fields"},
		{"Authentication", "GET", api.PathAccess, bearer, "Check agent subscriptions"},
		{"Authentication", "GET", api.PathSessionValidate, bearer, "Validate session token"},

		{"Chatbot (Public)", "POST", api.PathChat, "{ message, session_id }", "Send chat message"},
		{"Chatbot (Public)", "GET", api.ChatSessionPath("{id}"), "—", "Get session info"},
		{"Chatbot (Public)", "POST", api.PathChatReset, "{ session_id }", "Reset chat session"},
		{"Chatbot (Public)", "POST", api.PathChatClose, "{ session_id, delete_messages }", "Close and delete session"},

		{"Agent Proxy (Auth Required)", "POST", api.AgentChatPath(api.AgentMark), "{ message, session_id }", "Chat with Marketing Agent"},
		{"Agent Proxy (Auth Required)", "POST", api.AgentChatPath(api.AgentHR), "{ message, session_id }", "Chat with HR Agent"},
		{"Agent Proxy (Auth Required)", "GET", api.PathAgentStatus, bearer, "Check agent status"},

		{"Tenants (Staff)", "GET", api.PathTenants, bearer, "List tenants"},
		{"Tenants (Staff)", "POST", api.PathTenants, "{ name, email, subscribed_agents, monthly_quota }", "Create tenant"},
		{"Tenants (Staff)", "GET", api.TenantPath("{id}"), bearer, "Get tenant detail"},
		{"Tenants (Staff)", "POST", api.SubscriptionPath("{id}"), "{ subscribed_agents, subscription_end }", "Update subscription"},
		{"Tenants (Staff)", "POST", api.TenantAgentsPath("{id}"), "{ agent_type, endpoint_url, timeout_seconds }", "Configure agent endpoint"},

		{"Waitlist", "POST", api.PathWaitlistJoin, "{ email }", "Join product waitlist"},
		{"Waitlist", "GET", api.PathWaitlistStats, "—", "Get waitlist count"},
	}
}

// Groups returns group names in first-appearance order.
func Groups(eps []Endpoint) []string {
	var groups []string
	seen := make(map[string]bool)
	for _, ep := range eps {
		if !seen[ep.Group] {
			seen[ep.Group] = true
			groups = append(groups, ep.Group)
		}
	}
	return groups
}

// methodColor returns the tag color for an HTTP method.
func methodColor(method string) *color.Color {
	switch method {
	case "GET":
		return color.New(color.FgGreen)
	case "POST":
		return color.New(color.FgCyan)
	case "PUT", "PATCH":
		return color.New(color.FgYellow)
	case "DELETE":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}

// WriteTable prints eps grouped under bold headings, with full URLs against baseURL.
func WriteTable(out io.Writer, eps []Endpoint, baseURL string) error {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	for i, group := range Groups(eps) {
		if i > 0 {
			fmt.Fprintln(out)
		}
		bold.Fprintln(out, group)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, ep := range eps {
			if ep.Group != group {
				continue
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
				methodColor(ep.Method).Sprintf("%-6s", ep.Method),
				ep.URL(baseURL),
				ep.Body,
				dim.Sprint(ep.Description))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Markdown renders eps as one GFM table per group.
func Markdown(eps []Endpoint) string {
	var b strings.Builder
	b.WriteString("# SIA API Reference\n")
	for _, group := range Groups(eps) {
		fmt.Fprintf(&b, "\n## %s\n\n", group)
		b.WriteString("| Method | Path | Body | Description |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, ep := range eps {
			if ep.Group != group {
				continue
			}
			fmt.Fprintf(&b, "| `%s` | `%s` | %s | %s |\n",
				ep.Method, ep.Path, escapeCell(ep.Body), escapeCell(ep.Description))
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// HTML renders the Markdown form of eps to HTML.
func HTML(eps []Endpoint) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>SIA API Reference</title></head><body>\n")
	if err := md.Convert([]byte(Markdown(eps)), &buf); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}
