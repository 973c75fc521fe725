// ABOUTME: Operator CLI for the SIA backend: sessions, tenants, agents, chat, settings
// ABOUTME: Credentials live in a local SQLite store and refresh transparently

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/config"
	"github.com/2389/sia-console/internal/console"
	"github.com/2389/sia-console/internal/guard"
	"github.com/2389/sia-console/internal/logging"
	"github.com/2389/sia-console/internal/session"
	"github.com/2389/sia-console/internal/sounds"
	"github.com/2389/sia-console/internal/store"
)

// Version is set at build time.
var version = "dev"

const banner = `
      _                       _           _
  ___(_) __ _         __ _  __| |_ __ ___ (_)_ __
 / __| |/ _' |_____  / _' |/ _' | '_ ' _ \| | '_ \
 \__ \ | (_| |_____|| (_| | (_| | | | | | | | | | |
 |___/_|\__,_|       \__,_|\__,_|_| |_| |_|_|_| |_|
`

// errReported means the failure was already printed.
var errReported = errors.New("reported")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "--version":
		fmt.Println(version)
		return
	}

	a, err := newApp()
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	switch cmd {
	case "login":
		err = a.cmdLogin(ctx, args)
	case "logout":
		err = a.cmdLogout(ctx)
	case "status":
		err = a.cmdStatus(ctx)
	case "me":
		err = a.cmdMe(ctx)
	case "dashboard", "overview":
		err = a.cmdDashboard(ctx)
	case "profile":
		err = a.cmdProfile(ctx, args)
	case "tenants":
		err = a.cmdTenants(ctx, args)
	case "agents":
		err = a.cmdAgents(ctx, args)
	case "sessions":
		err = a.cmdSessions(ctx, args)
	case "waitlist":
		err = a.cmdWaitlist(ctx, args)
	case "chat":
		err = a.cmdChat(ctx, args)
	case "settings":
		err = a.cmdSettings(ctx, args)
	case "api":
		err = a.cmdAPI(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		a.close()
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, errReported) {
			printError(err)
		}
		a.close()
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: sia-admin <command> [args]")
	fmt.Println()
	yellow.Println("Session:")
	fmt.Println("  login [--email E] [--password P]   Sign in and store credentials")
	fmt.Println("  logout                             Revoke the session and clear credentials")
	fmt.Println("  status                             Show backend and session status")
	fmt.Println("  me                                 Show your admin identity")
	fmt.Println("  dashboard                          Overview: identity, tenants, waitlist, access")
	fmt.Println("  profile [update --first F --last L]")
	fmt.Println()
	yellow.Println("Tenants (staff):")
	fmt.Println("  tenants [list]                     List tenants with totals")
	fmt.Println("  tenants create --name N --email E [--agents both] [--quota 5000]")
	fmt.Println("  tenants show <id>                  Show one tenant")
	fmt.Println("  tenants subscription <id> --agents mark|hr|both|none [--end YYYY-MM-DD]")
	fmt.Println()
	yellow.Println("Agents:")
	fmt.Println("  agents [status]                    Live Mark and HR status")
	fmt.Println("  agents configure --tenant ID --url URL [--agent mark] [--timeout 30]")
	fmt.Println("  agents access                      Your agent subscriptions")
	fmt.Println()
	yellow.Println("Chat sessions:")
	fmt.Println("  sessions [list]                    Sessions this console has seen")
	fmt.Println("  sessions show|reset|close|delete <id>")
	fmt.Println("  sessions track <id>                Remember a session id")
	fmt.Println("  chat [--agent mark|hr] [--session ID] [message]   REPL if no message")
	fmt.Println()
	yellow.Println("Waitlist:")
	fmt.Println("  waitlist [stats]                   Signup count")
	fmt.Println("  waitlist join <email>              Join the waitlist")
	fmt.Println()
	yellow.Println("Settings:")
	fmt.Println("  settings [profile]                 Profile, access and backend status")
	fmt.Println("  settings billing                   Plan, agents and invoices")
	fmt.Println("  settings privacy                   Masked token and expiry")
	fmt.Println("  settings prefs [set <name> <value>]")
	fmt.Println("  settings api                       API reference")
	fmt.Println("  api [--markdown|--html]            API reference in other formats")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  SIA_CONFIG          Config file (default: ~/.config/sia/config.yaml)")
	fmt.Println("  SIA_API_URL         Backend URL (default: " + config.DefaultBaseURL + ")")
	fmt.Println("  SIA_DB_PATH         Local credential store")
	fmt.Println("  SIA_PASSWORD        Password for non-interactive login")
	fmt.Println()
}

// app holds everything a command needs.
type app struct {
	cfg      *config.Config
	store    store.Store
	client   *api.Client
	dash     *console.Dashboard
	settings *console.Settings
	player   *sounds.Player
	closed   bool
}

func newApp() (*app, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	cfg, err := config.LoadOrDefault(config.DefaultPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := logging.Setup(cfg.Logging)

	st, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	sess := session.New(st, session.NavigatorFunc(toLogin))
	client := api.NewClient(cfg.API.BaseURL, sess, api.WithTimeout(cfg.API.Timeout), api.WithLogger(logger))

	player := sounds.NewPlayer(os.Stderr)
	player.SetEnabled(cfg.Sounds.Enabled)
	player.SetVolume(cfg.Sounds.Volume)
	if prefs, err := console.LoadPreferences(context.Background(), st); err == nil {
		prefs.Apply(player)
	}

	return &app{
		cfg:    cfg,
		store:  st,
		client: client,
		dash: console.NewDashboard(client, st, console.DashboardOptions{
			MaxKnownSessions: cfg.Sessions.MaxKnown,
			SessionFetch:     cfg.Sessions.FetchLimit,
			Player:           player,
		}),
		settings: console.NewSettings(client),
		player:   player,
	}, nil
}

func (a *app) close() {
	if a.closed {
		return
	}
	a.closed = true
	_ = a.store.Close()
}

// toLogin is the entry point for a CLI: tell the operator to sign in.
func toLogin(reason string) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(os.Stderr, "Signed out (%s). Run `sia-admin login` to continue.\n", reason)
}

// requireSession runs the bootstrap guard before a protected command.
func (a *app) requireSession(ctx context.Context) error {
	res, err := guard.New(a.client).Bootstrap(ctx)
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, api.ErrSessionExpired) {
		return errReported
	}
	if err != nil {
		return err
	}
	if res.Degraded {
		color.New(color.FgYellow).Fprintln(os.Stderr, res.Warning)
	}
	return nil
}
