// ABOUTME: Tenant and agent commands: list, create, show, subscription, configure, status
// ABOUTME: Tenant commands need a staff account

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/console"
)

func (a *app) cmdTenants(ctx context.Context, args []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	sub, args := subcommand(args, "list")
	switch sub {
	case "list", "ls":
		return a.cmdTenantsList(ctx)
	case "create", "add":
		return a.cmdTenantsCreate(ctx, args)
	case "show", "get":
		if len(args) < 1 {
			return fmt.Errorf("usage: tenants show <tenant-id>")
		}
		return a.cmdTenantsShow(ctx, args[0])
	case "subscription", "sub":
		return a.cmdTenantsSubscription(ctx, args)
	default:
		return fmt.Errorf("unknown tenants subcommand: %s (use list, create, show, subscription)", sub)
	}
}

func (a *app) cmdTenantsList(ctx context.Context) error {
	tenants, notice, err := a.dash.LoadTenants(ctx)
	if err != nil {
		return report(notice, err)
	}

	heading("Tenants")
	if len(tenants) == 0 {
		fmt.Println("  (no tenants)")
		fmt.Println()
		return nil
	}

	printTenantTable(tenants)
	printTenantStats(console.ComputeTenantStats(tenants))
	return nil
}

func printTenantTable(tenants []api.Tenant) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tEMAIL\tAGENTS\tQUOTA\tACTIVE\tCREATED")
	fmt.Fprintln(w, "  --\t----\t-----\t------\t-----\t------\t-------")
	for _, t := range tenants {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			truncate(t.ID, 12), truncate(t.Name, 24), truncate(t.Email, 28),
			t.SubscribedAgents.Label(), t.MonthlyQuota, yesNo(t.IsActive), shortDate(t.CreatedAt))
	}
	w.Flush()
}

func printTenantStats(stats console.TenantStats) {
	fmt.Println()
	color.New(color.FgHiBlack).Printf("  %d tenants · %d active · %d with Mark · %d with HR\n",
		stats.Total, stats.Active, stats.Mark, stats.HR)
	fmt.Println()
}

func (a *app) cmdTenantsCreate(ctx context.Context, args []string) error {
	flags, _ := parseArgs(args)

	form := console.NewTenantForm()
	form.Name = flags["name"]
	form.Email = flags["email"]
	if v, ok := flags["agents"]; ok {
		form.Subscription = v
	}
	if v, ok := flags["quota"]; ok {
		form.MonthlyQuota = v
	}

	t, notice, err := a.dash.CreateTenant(ctx, form)
	if err != nil {
		return report(notice, err)
	}
	printNotice(notice)
	fmt.Printf("  ID:      %s\n", t.ID)
	fmt.Printf("  Agents:  %s\n", t.SubscribedAgents.Label())
	fmt.Printf("  Quota:   %d\n", t.MonthlyQuota)
	return nil
}

func (a *app) cmdTenantsShow(ctx context.Context, id string) error {
	t, notice, err := a.dash.TenantDetail(ctx, id)
	if err != nil {
		return report(notice, err)
	}

	heading(t.Name)
	fmt.Printf("  ID:            %s\n", t.ID)
	fmt.Printf("  Email:         %s\n", t.Email)
	fmt.Printf("  Agents:        %s\n", t.SubscribedAgents.Label())
	fmt.Printf("  Monthly quota: %d\n", t.MonthlyQuota)
	end := "—"
	if t.SubscriptionEnd != nil {
		end = shortDate(*t.SubscriptionEnd)
	}
	fmt.Printf("  Ends:          %s\n", end)
	fmt.Printf("  Active:        %s\n", yesNo(t.IsActive))
	fmt.Printf("  Created:       %s\n", shortDate(t.CreatedAt))
	fmt.Println()
	return nil
}

func (a *app) cmdTenantsSubscription(ctx context.Context, args []string) error {
	flags, rest := parseArgs(args)
	id := flags["tenant"]
	if id == "" && len(rest) > 0 {
		id = rest[0]
	}
	return report(a.dash.UpdateSubscription(ctx, id, console.SubscriptionForm{
		Subscription: flags["agents"],
		End:          flags["end"],
	}))
}

func (a *app) cmdAgents(ctx context.Context, args []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	sub, args := subcommand(args, "status")
	switch sub {
	case "status":
		return a.cmdAgentsStatus(ctx)
	case "configure", "config":
		flags, _ := parseArgs(args)
		return report(a.dash.ConfigureAgent(ctx, console.AgentForm{
			TenantID:       flags["tenant"],
			AgentType:      flags["agent"],
			EndpointURL:    flags["url"],
			TimeoutSeconds: flags["timeout"],
		}))
	case "access":
		return a.cmdAgentsAccess(ctx)
	default:
		return fmt.Errorf("unknown agents subcommand: %s (use status, configure, access)", sub)
	}
}

func (a *app) cmdAgentsStatus(ctx context.Context) error {
	status, notice, err := a.dash.AgentStatus(ctx)
	if err != nil {
		return report(notice, err)
	}

	heading("Agents")
	printAgentState("Mark", status.Mark)
	printAgentState("HR", status.HR)
	fmt.Println()
	return nil
}

func printAgentState(name string, st *api.AgentState) {
	if st == nil {
		fmt.Printf("  %-6s (unknown)\n", name)
		return
	}
	c := color.New(color.FgRed)
	if st.Active {
		c = color.New(color.FgGreen)
	}
	fmt.Printf("  %-6s ", name)
	c.Print(st.Status)
	if st.Endpoint != "" {
		color.New(color.FgHiBlack).Printf("  %s", st.Endpoint)
	}
	fmt.Println()
}

func (a *app) cmdAgentsAccess(ctx context.Context) error {
	access, err := a.dash.AgentAccess(ctx)
	if err != nil {
		return err
	}

	heading("Agent access")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  AGENT\tACCESS\tPLAN\tRENEWS\tSTATUS")
	fmt.Fprintln(w, "  -----\t------\t----\t------\t------")
	printAccessRow(w, "Mark", access.Marketing, access.MarketingSubscription)
	printAccessRow(w, "HR", access.HR, access.HRSubscription)
	w.Flush()
	fmt.Println()
	return nil
}

func printAccessRow(w *tabwriter.Writer, name string, on bool, sub *api.AgentSubscription) {
	if !on || sub == nil {
		fmt.Fprintf(w, "  %s\t%s\t—\t—\t—\n", name, yesNo(on))
		return
	}
	fmt.Fprintf(w, "  %s\tyes\t%s\t%s\t%s\n", name, sub.Plan, sub.Renews, sub.Status)
}

// shortDate renders RFC 3339 timestamps as "Jan 02 2006", leaving anything else as is.
func shortDate(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Local().Format("Jan 02 2006")
	}
	return orDash(s)
}
