// Package store provides local persistence for the console.
//
// # Overview
//
// The store plays the role browser local storage plays for a web dashboard:
// it holds the credential pair, the cached user record, local preferences and
// the bounded list of chat sessions this machine has seen.
//
// Keys:
//
//   - access_token, refresh_token, user: credentials, removed together on logout
//   - preferences: JSON blob of local settings
//
// # Implementations
//
//   - SQLiteStore: file-backed, created under ~/.local/share/sia/console.db
//   - MemoryStore: in-memory, for tests and throwaway sessions
//
// Both are safe for concurrent use. SetIfPresent is the primitive the session
// layer uses so that a refresh finishing after a logout cannot resurrect
// credentials.
//
// # Known Sessions
//
// The backend has no list-sessions endpoint, so the console remembers session
// IDs it created. The list is newest first and bounded; entries may point at
// sessions that were deleted server-side.
package store
