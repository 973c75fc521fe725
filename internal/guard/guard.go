// ABOUTME: Session bootstrap guard run before any protected view renders
// ABOUTME: Redirects without a token, validates with the backend, degrades to offline on network failure

package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/session"
)

// OfflineWarning is shown when validation could not reach the backend.
const OfflineWarning = "Session validation failed — working offline"

// serverErrorWarning is shown when the backend answered validation with a
// non-auth error; %s is the server message.
const serverErrorWarning = "Session validation failed: %s"

// State is the guard's lifecycle.
type State int

const (
	StateValidating State = iota
	StateReady
	StateRedirected
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateReady:
		return "ready"
	case StateRedirected:
		return "redirected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of a successful Bootstrap.
type Result struct {
	State State
	// Degraded is set when validation could not complete and the view runs on
	// the stored credentials.
	Degraded bool
	// Warning is the notice text to show, empty when validation succeeded.
	Warning string
}

// Guard validates the stored session before protected content is shown.
type Guard struct {
	client *api.Client
	logger *slog.Logger
}

// New creates a Guard over client.
func New(client *api.Client) *Guard {
	return &Guard{
		client: client,
		logger: slog.Default().With("component", "guard"),
	}
}

// Bootstrap checks the session. It returns session.ErrNoSession when no token
// is stored and api.ErrSessionExpired when the backend refused it; in both
// cases the operator has already been sent to the entry point and nothing
// protected may be rendered. Network and server errors keep the credentials
// and return a Degraded result.
func (g *Guard) Bootstrap(ctx context.Context) (*Result, error) {
	sess := g.client.Session()

	token, err := sess.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if token == "" {
		g.logger.Debug("no stored token, redirecting")
		sess.Redirect("not logged in")
		return &Result{State: StateRedirected}, session.ErrNoSession
	}

	err = g.client.ValidateSession(ctx)
	switch {
	case err == nil:
		return &Result{State: StateReady}, nil

	case errors.Is(err, api.ErrNetwork):
		g.logger.Warn("session validation unreachable, continuing offline", "error", err)
		return &Result{State: StateReady, Degraded: true, Warning: OfflineWarning}, nil

	case errors.Is(err, api.ErrSessionExpired):
		return &Result{State: StateRedirected}, err

	case ctx.Err() != nil:
		return nil, ctx.Err()

	default:
		var he *api.HTTPError
		if !errors.As(err, &he) {
			return nil, fmt.Errorf("validating session: %w", err)
		}
		if !he.IsAuth() {
			// Server-side failure says nothing about the credentials
			g.logger.Warn("session validation failed, continuing", "status", he.Status, "error", err)
			return &Result{
				State:    StateReady,
				Degraded: true,
				Warning:  fmt.Sprintf(serverErrorWarning, he.MessageOr(http.StatusText(he.Status))),
			}, nil
		}
		// Rejected again after a successful refresh
		g.logger.Info("session rejected by backend", "status", he.Status)
		if clearErr := sess.Expire(ctx, "session invalid"); clearErr != nil {
			g.logger.Error("clearing session", "error", clearErr)
		}
		return &Result{State: StateRedirected}, fmt.Errorf("%w: %w", api.ErrSessionExpired, err)
	}
}
