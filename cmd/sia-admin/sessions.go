// ABOUTME: Chat session and chat commands: list, show, reset, close, delete, track, chat REPL
// ABOUTME: The session list is what this console has seen, not everything on the backend

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/console"
)

func (a *app) cmdSessions(ctx context.Context, args []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	sub, args := subcommand(args, "list")
	if sub == "list" || sub == "ls" {
		return a.cmdSessionsList(ctx)
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: sessions %s <session-id>", sub)
	}
	id := args[0]

	switch sub {
	case "show", "get":
		s, notice, err := a.dash.ViewSession(ctx, id)
		if err != nil {
			return report(notice, err)
		}
		printSession(s)
		return nil
	case "reset":
		return report(a.dash.ResetSession(ctx, id))
	case "close":
		return report(a.dash.CloseSession(ctx, id, false))
	case "delete", "rm":
		return report(a.dash.CloseSession(ctx, id, true))
	case "track":
		if err := a.dash.TrackSession(ctx, id); err != nil {
			return err
		}
		color.New(color.FgGreen).Printf("✓ Tracking session %s\n", id)
		return nil
	default:
		return fmt.Errorf("unknown sessions subcommand: %s (use list, show, reset, close, delete, track)", sub)
	}
}

func (a *app) cmdSessionsList(ctx context.Context) error {
	sessions, err := a.dash.KnownSessions(ctx)
	if err != nil {
		return err
	}

	heading("Chat sessions")
	color.New(color.FgHiBlack).Println("  Sessions seen by this console; some may have been removed elsewhere.")
	fmt.Println()
	if len(sessions) == 0 {
		fmt.Println("  (no sessions — use `sessions track <id>` or `chat`)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  SESSION\tUSER\tCOMPANY\tMESSAGES\tLAST ACTIVE\tACTIVE")
	fmt.Fprintln(w, "  -------\t----\t-------\t--------\t-----------\t------")
	for _, s := range sessions {
		user := s.UserName
		if user == "" {
			user = s.UserEmail
		}
		active := "—"
		if s.IsActive != nil {
			active = yesNo(*s.IsActive)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%s\t%s\n",
			truncate(s.SessionID, 14), truncate(orDash(user), 24), truncate(orDash(s.CompanyName), 20),
			s.MessageCount, shortDate(s.LastActive), active)
	}
	w.Flush()
	fmt.Println()
	return nil
}

func printSession(s *api.ChatSession) {
	heading("Session " + s.SessionID)
	fmt.Printf("  User:         %s\n", orDash(s.UserName))
	fmt.Printf("  Email:        %s\n", orDash(s.UserEmail))
	fmt.Printf("  Company:      %s\n", orDash(s.CompanyName))
	fmt.Printf("  Messages:     %d\n", s.MessageCount)
	fmt.Printf("  Created:      %s\n", shortDate(s.CreatedAt))
	fmt.Printf("  Last active:  %s\n", shortDate(s.LastActive))
	if s.IsActive != nil {
		fmt.Printf("  Active:       %s\n", yesNo(*s.IsActive))
	}
	fmt.Println()
}

// cmdChat provides one-shot or interactive chat with an agent
func (a *app) cmdChat(ctx context.Context, args []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	flags, rest := parseArgs(args)
	var agent api.AgentType
	if v := flags["agent"]; v != "" {
		parsed, err := api.ParseAgentType(strings.ToLower(v))
		if err != nil {
			return err
		}
		agent = parsed
	}
	sessionID := flags["session"]

	if len(rest) > 0 {
		_, err := a.chatOnce(ctx, agent, strings.Join(rest, " "), sessionID)
		return err
	}
	return a.chatREPL(ctx, agent, sessionID)
}

func (a *app) chatOnce(ctx context.Context, agent api.AgentType, message, sessionID string) (string, error) {
	reply, notice, err := a.dash.Chat(ctx, agent, message, sessionID)
	if err != nil {
		return sessionID, report(notice, err)
	}
	label := strings.ToUpper(string(agent))
	if label == "" {
		label = strings.ToUpper(reply.Agent)
	}
	if label == "" {
		label = "SIA"
	}
	color.New(color.FgCyan).Printf("%s: ", label)
	fmt.Println(reply.Response)
	color.New(color.FgHiBlack).Printf("(session %s)\n", reply.SessionID)
	return reply.SessionID, nil
}

// chatREPL runs an interactive read-eval-print loop on one session
func (a *app) chatREPL(ctx context.Context, agent api.AgentType, sessionID string) error {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	name := string(agent)
	if name == "" {
		name = "the chatbot"
	}
	cyan.Printf("Chat with %s (Ctrl+D to exit)\n\n", name)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 1024*1024)
	for {
		green.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		id, err := a.chatOnce(ctx, agent, line, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if tok, _ := a.client.Session().AccessToken(ctx); tok == "" {
				return errReported
			}
			if !errors.Is(err, errReported) {
				printError(err)
			}
			continue
		}
		sessionID = id
		fmt.Println()
	}
}

func (a *app) cmdWaitlist(ctx context.Context, args []string) error {
	sub, args := subcommand(args, "stats")
	switch sub {
	case "stats":
		stats, err := console.WaitlistStats(ctx, a.client)
		if err != nil {
			return err
		}
		heading("Waitlist")
		fmt.Printf("  Signups:  %d\n", stats.Count)
		fmt.Println()
		return nil
	case "join":
		email := ""
		if len(args) > 0 {
			email = args[0]
		}
		out, err := console.JoinWaitlist(ctx, a.client, email)
		if err != nil {
			color.New(color.FgRed).Fprintf(os.Stderr, "%s\n", out.Message)
			return errReported
		}
		color.New(color.FgGreen).Println(out.Message)
		return nil
	default:
		return fmt.Errorf("unknown waitlist subcommand: %s (use stats, join)", sub)
	}
}
