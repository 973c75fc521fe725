// ABOUTME: Session context owning the locally stored credential pair
// ABOUTME: Single place that reads, writes, refreshes and clears tokens, plus entry-page navigation

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/sia-console/internal/store"
)

// ErrNoSession is returned when no access token is stored.
var ErrNoSession = errors.New("no active session")

// Credentials is the token pair issued at login.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Navigator moves the operator to the unauthenticated entry point.
type Navigator interface {
	ToEntry(reason string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(reason string)

// ToEntry calls f(reason).
func (f NavigatorFunc) ToEntry(reason string) { f(reason) }

// Session is the explicit session context handed to every API call site.
// Tokens are read from the store on every call and never cached in memory.
type Session struct {
	store  store.Store
	nav    Navigator
	logger *slog.Logger
}

// New creates a Session over st. nav may be nil.
func New(st store.Store, nav Navigator) *Session {
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	return &Session{
		store:  st,
		nav:    nav,
		logger: slog.Default().With("component", "session"),
	}
}

// AccessToken returns the stored access token, or "" when none is stored.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, store.KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when none is stored.
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, store.KeyRefreshToken)
}

func (s *Session) get(ctx context.Context, key string) (string, error) {
	v, err := s.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return v, nil
}

// Begin persists the credentials from a login and the user record, if any.
func (s *Session) Begin(ctx context.Context, creds Credentials, user json.RawMessage) error {
	if creds.AccessToken == "" {
		return fmt.Errorf("login response carried no access token")
	}
	if err := s.store.Set(ctx, store.KeyAccessToken, creds.AccessToken); err != nil {
		return fmt.Errorf("saving access token: %w", err)
	}
	if creds.RefreshToken != "" {
		if err := s.store.Set(ctx, store.KeyRefreshToken, creds.RefreshToken); err != nil {
			return fmt.Errorf("saving refresh token: %w", err)
		}
	} else if err := s.store.Delete(ctx, store.KeyRefreshToken); err != nil {
		return fmt.Errorf("clearing stale refresh token: %w", err)
	}
	if len(user) > 0 && string(user) != "null" {
		if err := s.store.Set(ctx, store.KeyUser, string(user)); err != nil {
			return fmt.Errorf("saving user record: %w", err)
		}
	}
	s.logger.Debug("session started")
	return nil
}

// Refreshed stores a refreshed access token (and rotated refresh token, when
// the server issued one). The write is skipped if the session was cleared
// while the refresh was in flight; in that case it returns false.
func (s *Session) Refreshed(ctx context.Context, accessToken, refreshToken string) (bool, error) {
	values := map[string]string{store.KeyAccessToken: accessToken}
	if refreshToken != "" {
		values[store.KeyRefreshToken] = refreshToken
	}
	ok, err := s.store.SetIfPresent(ctx, store.KeyAccessToken, values)
	if err != nil {
		return false, fmt.Errorf("saving refreshed token: %w", err)
	}
	if !ok {
		s.logger.Debug("refresh finished after logout, token discarded")
	}
	return ok, nil
}

// Clear removes every credential key. It runs even when ctx is already
// cancelled so that logout always wins.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Delete(context.WithoutCancel(ctx), store.CredentialKeys...); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	s.logger.Debug("session cleared")
	return nil
}

// Expire clears the session and sends the operator to the entry point.
func (s *Session) Expire(ctx context.Context, reason string) error {
	err := s.Clear(ctx)
	s.nav.ToEntry(reason)
	return err
}

// Redirect sends the operator to the entry point without touching storage.
func (s *Session) Redirect(reason string) {
	s.nav.ToEntry(reason)
}

// User decodes the cached user record into v. Returns ErrNoSession when none is cached.
func (s *Session) User(ctx context.Context, v any) error {
	raw, err := s.get(ctx, store.KeyUser)
	if err != nil {
		return err
	}
	if raw == "" {
		return ErrNoSession
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding cached user: %w", err)
	}
	return nil
}
