// ABOUTME: Tests for the session context and token inspection
// ABOUTME: Covers login writes, guarded refresh writes, logout clearing, and navigation

package session

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sia-console/internal/store"
)

type recordingNavigator struct {
	reasons []string
}

func (n *recordingNavigator) ToEntry(reason string) {
	n.reasons = append(n.reasons, reason)
}

func TestSession_BeginAndRead(t *testing.T) {
	st := store.NewMemoryStore()
	s := New(st, nil)
	ctx := context.Background()

	tok, err := s.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	user := json.RawMessage(`{"email":"ops@example.com","first_name":"Ada"}`)
	require.NoError(t, s.Begin(ctx, Credentials{AccessToken: "A1", RefreshToken: "R1"}, user))

	tok, _ = s.AccessToken(ctx)
	assert.Equal(t, "A1", tok)
	tok, _ = s.RefreshToken(ctx)
	assert.Equal(t, "R1", tok)

	var u struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
	}
	require.NoError(t, s.User(ctx, &u))
	assert.Equal(t, "ops@example.com", u.Email)
}

func TestSession_BeginRequiresAccessToken(t *testing.T) {
	s := New(store.NewMemoryStore(), nil)
	err := s.Begin(context.Background(), Credentials{RefreshToken: "R1"}, nil)
	assert.Error(t, err)
}

func TestSession_ReadsStoreEveryCall(t *testing.T) {
	st := store.NewMemoryStore()
	s := New(st, nil)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, store.KeyAccessToken, "A1"))
	tok, _ := s.AccessToken(ctx)
	assert.Equal(t, "A1", tok)

	// Changed behind the session's back
	require.NoError(t, st.Set(ctx, store.KeyAccessToken, "A9"))
	tok, _ = s.AccessToken(ctx)
	assert.Equal(t, "A9", tok)
}

func TestSession_RefreshedKeepsRefreshToken(t *testing.T) {
	st := store.NewMemoryStore()
	s := New(st, nil)
	ctx := context.Background()
	require.NoError(t, s.Begin(ctx, Credentials{AccessToken: "A1", RefreshToken: "R1"}, nil))

	ok, err := s.Refreshed(ctx, "A2", "")
	require.NoError(t, err)
	assert.True(t, ok)

	tok, _ := s.AccessToken(ctx)
	assert.Equal(t, "A2", tok)
	tok, _ = s.RefreshToken(ctx)
	assert.Equal(t, "R1", tok)
}

func TestSession_RefreshedAfterLogoutIsDiscarded(t *testing.T) {
	st := store.NewMemoryStore()
	s := New(st, nil)
	ctx := context.Background()
	require.NoError(t, s.Begin(ctx, Credentials{AccessToken: "A1", RefreshToken: "R1"}, nil))

	require.NoError(t, s.Clear(ctx))

	ok, err := s.Refreshed(ctx, "A2", "R2")
	require.NoError(t, err)
	assert.False(t, ok)

	tok, _ := s.AccessToken(ctx)
	assert.Empty(t, tok, "logout must win over a late refresh")
	tok, _ = s.RefreshToken(ctx)
	assert.Empty(t, tok)
}

func TestSession_ClearIgnoresCancellation(t *testing.T) {
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer st.Close()
	s := New(st, nil)
	require.NoError(t, s.Begin(context.Background(), Credentials{AccessToken: "A1", RefreshToken: "R1"}, json.RawMessage(`{}`)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Clear(ctx))

	for _, k := range store.CredentialKeys {
		_, err := st.Get(context.Background(), k)
		assert.ErrorIs(t, err, store.ErrNotFound, "key %s", k)
	}
}

func TestSession_ExpireNavigates(t *testing.T) {
	nav := &recordingNavigator{}
	s := New(store.NewMemoryStore(), nav)
	ctx := context.Background()
	require.NoError(t, s.Begin(ctx, Credentials{AccessToken: "A1"}, nil))

	require.NoError(t, s.Expire(ctx, "refresh failed"))

	assert.Equal(t, []string{"refresh failed"}, nav.reasons)
	tok, _ := s.AccessToken(ctx)
	assert.Empty(t, tok)
}

func TestSession_UserMissing(t *testing.T) {
	s := New(store.NewMemoryStore(), nil)
	var v map[string]any
	assert.ErrorIs(t, s.User(context.Background(), &v), ErrNoSession)
}

func TestInspect_JWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"iat": time.Now().Unix(),
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("any-secret-will-do"))
	require.NoError(t, err)

	info, ok := Inspect(signed)
	require.True(t, ok)
	assert.Equal(t, "user-1", info.Subject)
	assert.True(t, info.ExpiresAt.Equal(exp))
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(exp.Add(time.Second)))
}

func TestInspect_Opaque(t *testing.T) {
	_, ok := Inspect("opaque-token-value")
	assert.False(t, ok)
	_, ok = Inspect("")
	assert.False(t, ok)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "abcdefgh"+strings.Repeat("•", 20)+"stuvwxyz", Mask("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "•••", Mask("abc"))
}
