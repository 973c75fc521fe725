// ABOUTME: Store interface and key names for sia-console local persistence
// ABOUTME: Stands in for browser local storage: credentials, cached user, preferences, known sessions

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist
var ErrNotFound = errors.New("not found")

// Well-known keys
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyPreferences  = "preferences"
)

// CredentialKeys are the keys removed on logout.
var CredentialKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Store defines the local key-value persistence used by the console.
// Implementations are safe for concurrent use.
type Store interface {
	// Key-value
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error

	// SetIfPresent writes values only if guardKey currently exists, checking
	// and writing atomically. Returns false when guardKey was absent.
	SetIfPresent(ctx context.Context, guardKey string, values map[string]string) (bool, error)

	// Known chat sessions, newest first
	AddKnownSession(ctx context.Context, sessionID string, max int) error
	ListKnownSessions(ctx context.Context, limit int) ([]string, error)
	RemoveKnownSession(ctx context.Context, sessionID string) error

	// Close releases any resources held by the store
	Close() error
}
