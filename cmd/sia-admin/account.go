// ABOUTME: Account commands: login, logout, status, me, profile
// ABOUTME: Passwords are read without echo when stdin is a terminal

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/guard"
	"github.com/2389/sia-console/internal/session"
)

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	flags, _ := parseArgs(args)

	email := flags["email"]
	if email == "" {
		email = os.Getenv("SIA_EMAIL")
	}
	password := flags["password"]
	if password == "" {
		password = os.Getenv("SIA_PASSWORD")
	}

	reader := bufio.NewReader(os.Stdin)
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if password == "" {
		p, err := readPassword(reader)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		password = p
	}

	res, err := a.client.Login(ctx, email, password)
	if err != nil {
		var he *api.HTTPError
		if errors.As(err, &he) {
			color.Red("%s\n", he.MessageOr("Login failed"))
			return errReported
		}
		return err
	}

	var profile api.AdminProfile
	if len(res.User) > 0 {
		_ = json.Unmarshal(res.User, &profile)
	}
	green := color.New(color.FgGreen)
	if profile.Email != "" {
		green.Printf("✓ Logged in as %s\n", profile.DisplayName())
	} else {
		green.Printf("✓ Logged in as %s\n", email)
	}
	if !profile.IsStaff && profile.Email != "" {
		color.Yellow("  This account is not staff; tenant commands will be refused.\n")
	}
	return nil
}

func readPassword(reader *bufio.Reader) (string, error) {
	fmt.Print("Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	return report(a.dash.Logout(ctx))
}

// cmdStatus shows backend reachability and the state of the stored session
func (a *app) cmdStatus(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()

	green.Printf("  Backend:  ")
	fmt.Println(a.client.BaseURL())

	if stats, err := a.client.WaitlistStats(ctx); err != nil {
		yellow.Printf("  Reach:    ")
		color.Red("UNREACHABLE (%v)\n", err)
	} else {
		green.Printf("  Reach:    ")
		fmt.Printf("ok (%d on waitlist)\n", stats.Count)
	}

	token, err := a.client.Session().AccessToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		yellow.Printf("  Session:  ")
		fmt.Println("(not logged in)")
		fmt.Println()
		return nil
	}

	if info, ok := session.Inspect(token); ok && !info.ExpiresAt.IsZero() {
		green.Printf("  Token:    ")
		fmt.Printf("%s (expires %s)\n", session.Mask(token), info.ExpiresAt.Local().Format(time.RFC1123))
	} else {
		green.Printf("  Token:    ")
		fmt.Println(session.Mask(token))
	}

	res, err := guard.New(a.client).Bootstrap(ctx)
	switch {
	case err != nil:
		yellow.Printf("  Session:  ")
		color.Red("invalid (%v)\n", err)
	case res.Degraded:
		yellow.Printf("  Session:  ")
		fmt.Println(res.Warning)
	default:
		green.Printf("  Session:  ")
		fmt.Println("valid")
	}
	fmt.Println()
	return nil
}

// cmdMe shows the admin's identity
func (a *app) cmdMe(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	p, err := a.dash.Profile(ctx)
	if err != nil {
		return err
	}

	heading("Identity")
	fmt.Printf("  ID:          %s\n", orDash(p.ID))
	fmt.Printf("  Name:        %s\n", p.DisplayName())
	fmt.Printf("  Email:       %s\n", p.Email)
	fmt.Printf("  Role:        %s\n", orDash(p.Role))
	green := color.New(color.FgGreen)
	if p.IsStaff {
		green.Printf("  Staff:       yes\n")
	} else {
		fmt.Printf("  Staff:       no\n")
	}
	fmt.Printf("  Superuser:   %s\n", yesNo(p.IsSuperuser))
	fmt.Println()
	return nil
}

func (a *app) cmdProfile(ctx context.Context, args []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	sub, args := subcommand(args, "show")
	switch sub {
	case "show":
		p, err := a.client.UserProfile(ctx)
		if err != nil {
			return err
		}
		heading("Profile")
		fmt.Printf("  First name:  %s\n", orDash(p.FirstName))
		fmt.Printf("  Last name:   %s\n", orDash(p.LastName))
		fmt.Printf("  Email:       %s\n", p.Email)
		fmt.Printf("  Role:        %s\n", orDash(p.Role))
		fmt.Println()
		return nil
	case "update":
		flags, _ := parseArgs(args)
		first, hasFirst := flags["first"]
		last, hasLast := flags["last"]
		if !hasFirst && !hasLast {
			return fmt.Errorf("usage: profile update --first <name> --last <name>")
		}
		if !hasFirst || !hasLast {
			current, err := a.client.UserProfile(ctx)
			if err != nil {
				return err
			}
			if !hasFirst {
				first = current.FirstName
			}
			if !hasLast {
				last = current.LastName
			}
		}
		return report(a.dash.UpdateProfile(ctx, first, last))
	default:
		return fmt.Errorf("unknown profile subcommand: %s (use show, update)", sub)
	}
}
