// ABOUTME: Chat session management: the locally tracked session list plus view, reset, close
// ABOUTME: The backend cannot list sessions, so the console remembers IDs it has seen

package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2389/sia-console/internal/api"
)

// TrackSession remembers id at the front of the known list.
func (d *Dashboard) TrackSession(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &api.ValidationError{Fields: map[string]string{"session_id": ErrRequired}}
	}
	if err := d.store.AddKnownSession(ctx, id, d.maxKnown); err != nil {
		return fmt.Errorf("tracking session: %w", err)
	}
	return nil
}

// KnownSessionIDs returns the tracked IDs, newest first.
func (d *Dashboard) KnownSessionIDs(ctx context.Context) ([]string, error) {
	return d.store.ListKnownSessions(ctx, 0)
}

// KnownSessions fetches the newest tracked sessions one by one. Sessions that
// fail to load are skipped; they may have been deleted server-side. An
// expired session aborts the load.
func (d *Dashboard) KnownSessions(ctx context.Context) ([]api.ChatSession, error) {
	ids, err := d.store.ListKnownSessions(ctx, d.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("listing known sessions: %w", err)
	}

	sessions := make([]api.ChatSession, 0, len(ids))
	for _, id := range ids {
		s, err := d.client.ChatSession(ctx, id)
		if err != nil {
			if errors.Is(err, api.ErrSessionExpired) || ctx.Err() != nil {
				return sessions, err
			}
			d.logger.Debug("skipping unavailable session", "session_id", id, "error", err)
			continue
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

// ViewSession fetches one session and starts tracking it.
func (d *Dashboard) ViewSession(ctx context.Context, id string) (*api.ChatSession, Notice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, Notice{}, &api.ValidationError{Fields: map[string]string{"session_id": ErrRequired}}
	}
	s, err := d.client.ChatSession(ctx, id)
	if err != nil {
		return nil, fixedFailureNotice(err, "Failed to load session"), err
	}
	if err := d.TrackSession(ctx, id); err != nil {
		d.logger.Warn("could not track session", "session_id", id, "error", err)
	}
	return s, Notice{}, nil
}

// ResetSession clears a session's conversation.
func (d *Dashboard) ResetSession(ctx context.Context, id string) (Notice, error) {
	if err := d.client.ResetChatSession(ctx, id); err != nil {
		return fixedFailureNotice(err, "Reset failed"), err
	}
	return okNotice("Session reset ✓"), nil
}

// CloseSession closes (or deletes, with deleteMessages) a session and drops
// it from the known list.
func (d *Dashboard) CloseSession(ctx context.Context, id string, deleteMessages bool) (Notice, error) {
	if err := d.client.CloseChatSession(ctx, id, deleteMessages); err != nil {
		return fixedFailureNotice(err, "Close failed"), err
	}
	if err := d.store.RemoveKnownSession(ctx, id); err != nil {
		d.logger.Warn("could not untrack session", "session_id", id, "error", err)
	}
	if deleteMessages {
		return okNotice("Session deleted ✓"), nil
	}
	return okNotice("Session closed ✓"), nil
}
