// ABOUTME: In-memory Store implementation for tests and ephemeral sessions
// ABOUTME: Allows running the console without SQLite

package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]string
	sessions []string // newest first
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

// Get returns the value stored under key, or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

// Delete removes the given keys.
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// SetIfPresent writes values only while guardKey exists.
func (m *MemoryStore) SetIfPresent(_ context.Context, guardKey string, values map[string]string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[guardKey]; !ok {
		return false, nil
	}
	for k, v := range values {
		m.values[k] = v
	}
	return true, nil
}

// AddKnownSession puts sessionID at the front of the list and trims it to max.
func (m *MemoryStore) AddKnownSession(_ context.Context, sessionID string, max int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]string, 0, len(m.sessions)+1)
	next = append(next, sessionID)
	for _, id := range m.sessions {
		if id != sessionID {
			next = append(next, id)
		}
	}
	if max > 0 && len(next) > max {
		next = next[:max]
	}
	m.sessions = next
	return nil
}

// ListKnownSessions returns up to limit IDs, newest first.
func (m *MemoryStore) ListKnownSessions(_ context.Context, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.sessions)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]string, n)
	copy(out, m.sessions[:n])
	return out, nil
}

// RemoveKnownSession forgets sessionID.
func (m *MemoryStore) RemoveKnownSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.sessions[:0]
	for _, id := range m.sessions {
		if id != sessionID {
			kept = append(kept, id)
		}
	}
	m.sessions = kept
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
