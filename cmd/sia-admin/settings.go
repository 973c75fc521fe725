// ABOUTME: Settings commands: profile and status, billing, privacy, preferences, API reference
// ABOUTME: Preferences are local; everything else is read from the backend

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/sia-console/internal/apiref"
	"github.com/2389/sia-console/internal/console"
)

func (a *app) cmdSettings(ctx context.Context, args []string) error {
	sub, args := subcommand(args, "profile")
	switch sub {
	case "prefs", "preferences":
		return a.cmdPrefs(ctx, args)
	case "api":
		return a.cmdAPI(args)
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}

	switch sub {
	case "profile":
		return a.cmdSettingsProfile(ctx)
	case "billing":
		if _, err := a.settings.LoadAll(ctx); err != nil {
			return err
		}
		printBilling(a.settings.Billing())
		return nil
	case "privacy":
		return a.cmdSettingsPrivacy(ctx)
	default:
		return fmt.Errorf("unknown settings subcommand: %s (use profile, billing, privacy, prefs, api)", sub)
	}
}

func (a *app) cmdSettingsProfile(ctx context.Context) error {
	state, err := a.settings.LoadAll(ctx)

	heading("Settings")
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	fmt.Printf("  API:        ")
	if state.APIOnline {
		green.Println(state.Status)
	} else {
		red.Printf("%s  %s\n", state.Status, state.APIError)
	}
	if err != nil {
		fmt.Println()
		return errReported
	}

	p := state.Profile
	fmt.Printf("  Name:       %s %s\n", p.FirstName, p.LastName)
	fmt.Printf("  Email:      %s\n", p.Email)
	fmt.Printf("  Role:       %s\n", orDash(p.Role))
	fmt.Printf("  Mark:       %s\n", yesNo(state.Access.Marketing))
	fmt.Printf("  HR:         %s\n", yesNo(state.Access.HR))
	if st := state.AgentStatus.Mark; st != nil {
		fmt.Printf("  Mark agent: %s\n", st.Status)
	}
	if st := state.AgentStatus.HR; st != nil {
		fmt.Printf("  HR agent:   %s\n", st.Status)
	}
	fmt.Println()
	return nil
}

func printBilling(b console.Billing) {
	heading("Billing")
	fmt.Printf("  Plan:     %s (%s/mo)\n", b.CurrentPlan, b.MonthlyCost)
	fmt.Printf("  %s\n", b.Renews)
	fmt.Printf("  Agents:   %d/%d active\n", b.ActiveAgents, b.AgentLimit)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  AGENT\tSUBSCRIBED\tPLAN\tRENEWS\tSTATUS")
	for _, ag := range b.Agents {
		if !ag.Subscribed {
			fmt.Fprintf(w, "  %s\tno\t—\t—\t—\n", strings.ToUpper(string(ag.Agent)))
			continue
		}
		fmt.Fprintf(w, "  %s\tyes\t%s\t%s\t%s\n", strings.ToUpper(string(ag.Agent)),
			ag.Subscription.Plan, ag.Subscription.Renews, ag.Subscription.Status)
	}
	w.Flush()
	fmt.Println()

	cyan := color.New(color.FgCyan)
	for _, p := range b.Plans {
		if p.Active {
			cyan.Printf("  ▶ %-8s %-7s", p.Name, p.Price)
		} else {
			fmt.Printf("    %-8s %-7s", p.Name, p.Price)
		}
		fmt.Printf(" %s\n", strings.Join(p.Features, " · "))
	}
	fmt.Println()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  INVOICE\tDATE\tAMOUNT\tSTATUS")
	for _, inv := range b.Invoices {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", inv.ID, inv.Date, inv.Amount, inv.Status)
	}
	w.Flush()
	fmt.Println()
}

func (a *app) cmdSettingsPrivacy(ctx context.Context) error {
	v, err := a.settings.Privacy(ctx)
	if err != nil {
		return err
	}
	prefs, err := console.LoadPreferences(ctx, a.store)
	if err != nil {
		return err
	}

	heading("Privacy")
	if !v.HasToken {
		fmt.Println("  Token:      (none)")
	} else {
		fmt.Printf("  Token:      %s\n", v.MaskedToken)
		if v.Subject != "" {
			fmt.Printf("  Subject:    %s\n", v.Subject)
		}
		if !v.ExpiresAt.IsZero() {
			exp := v.ExpiresAt.Local().Format(time.RFC1123)
			if v.Expired {
				color.Red("  Expires:    %s (expired)\n", exp)
			} else {
				fmt.Printf("  Expires:    %s\n", exp)
			}
		}
	}
	fmt.Printf("  2FA:        %s\n", yesNo(prefs.Privacy.TwoFactor))
	fmt.Printf("  Public:     %s\n", yesNo(prefs.Privacy.Public))
	fmt.Printf("  Logging:    %s\n", yesNo(prefs.Privacy.Logging))
	fmt.Printf("  Sharing:    %s\n", yesNo(prefs.Privacy.Sharing))
	fmt.Println()
	return nil
}

func (a *app) cmdPrefs(ctx context.Context, args []string) error {
	prefs, err := console.LoadPreferences(ctx, a.store)
	if err != nil {
		return err
	}

	sub, args := subcommand(args, "list")
	switch sub {
	case "list", "ls":
		heading("Preferences")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, name := range prefs.Names() {
			v, _ := prefs.Value(name)
			fmt.Fprintf(w, "  %s\t%s\n", name, v)
		}
		w.Flush()
		fmt.Println()
		return nil
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: settings prefs set <name> <value>")
		}
		if err := prefs.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := prefs.Save(ctx, a.store); err != nil {
			return err
		}
		prefs.Apply(a.player)
		color.New(color.FgGreen).Printf("✓ %s = %s\n", args[0], args[1])
		return nil
	case "reset":
		if err := console.DefaultPreferences().Save(ctx, a.store); err != nil {
			return err
		}
		color.New(color.FgGreen).Println("✓ Preferences reset")
		return nil
	default:
		return fmt.Errorf("unknown prefs subcommand: %s (use list, set, reset)", sub)
	}
}

// cmdAPI prints the endpoint reference as a table, Markdown or HTML
func (a *app) cmdAPI(args []string) error {
	flags, _ := parseArgs(args, "markdown", "html")
	eps := apiref.Catalogue()

	switch {
	case flags["markdown"] == "true":
		fmt.Print(apiref.Markdown(eps))
		return nil
	case flags["html"] == "true":
		out, err := apiref.HTML(eps)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	default:
		return apiref.WriteTable(os.Stdout, eps, a.client.BaseURL())
	}
}
