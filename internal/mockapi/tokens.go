// ABOUTME: Token issuing for the mock backend: HS256 JWT access tokens, opaque refresh tokens
// ABOUTME: An epoch claim lets tests invalidate every outstanding access token at once

package mockapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// tokenIssuer signs and verifies access tokens.
type tokenIssuer struct {
	secret []byte
}

func newTokenIssuer(secret []byte) *tokenIssuer {
	return &tokenIssuer{secret: secret}
}

// Generate creates an access token for userID that expires after ttl.
func (t *tokenIssuer) Generate(userID string, epoch int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        userID,
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
		"jti":        uuid.NewString(),
		"epoch":      epoch,
		"token_type": "access",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify validates tokenString and returns its subject and epoch.
func (t *tokenIssuer) Verify(tokenString string) (userID string, epoch int, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", 0, ErrExpiredToken
		}
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", 0, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", 0, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	// JSON numbers decode as float64
	e, ok := claims["epoch"].(float64)
	if !ok {
		return "", 0, fmt.Errorf("%w: epoch", ErrMissingClaim)
	}
	return sub, int(e), nil
}

// newRefreshToken returns an opaque refresh token.
func newRefreshToken() string {
	return "rt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "Authentication credentials were not provided."
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "Invalid authorization header format."
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "Empty token."
	}
	return token, ""
}
