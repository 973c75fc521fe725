// Package mockapi is an in-memory implementation of the SIA backend REST API.
//
// # Purpose
//
// It backs the console's tests and lets operators try the CLI without a real
// deployment (see cmd/sia-mockapi). Every endpoint the console calls is
// implemented, plus /api/auth/register/ and the chat send endpoints.
//
// # Tokens
//
// Access tokens are HS256 JWTs carrying sub, iat, exp and an epoch claim.
// ExpireAccessTokens bumps the epoch so every outstanding access token is
// rejected with 401 while refresh tokens keep working, which is how tests
// exercise the refresh-and-retry path. Refresh tokens are opaque and, unless
// RotateRefreshTokens is set, are not rotated on refresh.
//
// # Test Hooks
//
//	srv.ExpireAccessTokens()
//	srv.RevokeRefreshTokens()
//	srv.RefreshCalls()
//	srv.FailEndpoint(http.MethodGet, "/api/tenants/", 500, "")
//
// # Observability
//
// The handler is wrapped with otelhttp and counts requests per route and
// status in a private Prometheus registry served at GET /metrics.
package mockapi
