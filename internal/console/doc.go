// Package console implements the operator actions behind sia-admin.
//
// # Dashboard
//
// Dashboard covers the staff view: the bootstrap overview, tenant creation
// and subscription changes, agent endpoint configuration, the admin profile,
// and chat sessions. The backend cannot list chat sessions, so every session
// the console sends to or looks up is remembered in the local store, newest
// first. That list may name sessions deleted elsewhere; KnownSessions skips
// those.
//
// # Settings
//
// Settings loads profile, access and agent status concurrently. If any read
// fails the whole load fails and the view is marked offline. SaveProfile
// updates the local copy before the request and keeps it when the request
// fails.
//
// # Results
//
// Actions return their value, a Notice and an error. Validation failures
// return a *api.ValidationError and an empty Notice, since they are shown on
// the offending fields. Every other failure carries an error Notice with the
// server's message when it sent one.
package console
