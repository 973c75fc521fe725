// Package guard runs the session bootstrap check before protected commands.
//
// Bootstrap moves from validating to ready, or redirects to the entry point
// when there is no token or the backend rejects it. An unreachable backend
// leaves the session intact and marks the result Degraded so the caller can
// show OfflineWarning and continue. A server error (5xx and the like) is
// also Degraded, with the server message in the warning.
package guard
