// ABOUTME: Read-only inspection of bearer tokens for display
// ABOUTME: Decodes JWT claims without verification and masks tokens for the privacy view

package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo describes what can be read from a token without its signing key.
type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes JWT claims without verifying the signature. Tokens are
// opaque to the console, so ok is false for anything that is not a JWT.
// The result is for display only and must never gate access.
func Inspect(token string) (TokenInfo, bool) {
	if token == "" {
		return TokenInfo{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false
	}

	var info TokenInfo
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, true
}

// Mask hides all but the first and last few characters of a token.
func Mask(token string) string {
	const keep = 8
	if len(token) <= keep*2 {
		return strings.Repeat("•", len(token))
	}
	return token[:keep] + strings.Repeat("•", 20) + token[len(token)-keep:]
}
