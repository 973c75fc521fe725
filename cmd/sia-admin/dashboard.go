// ABOUTME: Dashboard command: validates the session and shows the admin overview
// ABOUTME: Profile, tenants, waitlist and agent access load together in one pass

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/console"
	"github.com/2389/sia-console/internal/session"
)

func (a *app) cmdDashboard(ctx context.Context) error {
	ov, err := a.dash.Bootstrap(ctx)
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, api.ErrSessionExpired) {
		return errReported
	}
	if err != nil {
		return err
	}
	printOverview(ov)
	return nil
}

func printOverview(ov *console.Overview) {
	for _, n := range ov.Notices {
		printNotice(n)
	}

	heading("Dashboard")
	if p := ov.Profile; p != nil {
		fmt.Printf("  Signed in:  %s <%s>\n", p.DisplayName(), p.Email)
	} else {
		fmt.Println("  Signed in:  —")
	}
	if ov.Waitlist != nil {
		fmt.Printf("  Waitlist:   %d signups\n", ov.Waitlist.Count)
	} else {
		fmt.Println("  Waitlist:   —")
	}
	if acc := ov.Access; acc != nil {
		fmt.Printf("  Access:     Mark %s · HR %s\n", yesNo(acc.Marketing), yesNo(acc.HR))
	} else {
		fmt.Println("  Access:     —")
	}
	if ov.Guard != nil && ov.Guard.Degraded {
		color.New(color.FgYellow).Println("  Offline:    showing what loaded")
	}

	heading("Tenants")
	if len(ov.Tenants) == 0 {
		fmt.Println("  (no tenants)")
		fmt.Println()
		return
	}
	printTenantTable(ov.Tenants)
	printTenantStats(ov.Stats)
}
