// Package api is the authenticated client for the SIA backend.
//
// # Request Flow
//
// Every protected call goes through Client.Do:
//
//  1. Read the access token from the session store (never cached)
//  2. Send with "Authorization: Bearer <token>"
//  3. On 401 or 403, exchange the refresh token once and retry once
//  4. If the refresh fails, clear credentials, navigate to the entry point,
//     and return ErrSessionExpired
//
// A retry that is rejected again is returned as-is; it never triggers a second
// refresh. Concurrent callers hitting 401 together share one refresh exchange.
//
// # Responses
//
// Success bodies are normalized: a {"success": .., "data": X} envelope is
// unwrapped to X, and empty or non-JSON bodies become {}.
//
// # Errors
//
// Every operation returns (value, error). The error is one of:
//
//   - *ValidationError: rejected locally, nothing was sent
//   - *HTTPError: non-2xx with the server message and field errors when present
//   - *NetworkError: transport failure, matches ErrNetwork
//   - ErrSessionExpired: the session was ended and the operator sent to login
//
// Callers pick the user-facing text; HTTPError.MessageOr supplies the usual
// "server message or fallback" rule.
package api
