// ABOUTME: Sends operator chat messages to the generic or agent-specific endpoint
// ABOUTME: New conversations get a fresh session id, which is tracked for later lookup

package console

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/sounds"
)

// Chat sends message to agent ("" for the public chatbot). An empty
// sessionID starts a new conversation.
func (d *Dashboard) Chat(ctx context.Context, agent api.AgentType, message, sessionID string) (*api.ChatReply, Notice, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, Notice{}, &api.ValidationError{Fields: map[string]string{"message": ErrRequired}}
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	d.play(sounds.Send)
	reply, err := d.client.SendChat(ctx, agent, api.ChatRequest{Message: message, SessionID: sessionID})
	if err != nil {
		return nil, failureNotice(err, "Chat failed"), err
	}
	if reply.SessionID == "" {
		reply.SessionID = sessionID
	}
	d.play(sounds.Receive)

	if err := d.TrackSession(ctx, reply.SessionID); err != nil {
		d.logger.Warn("could not track session", "session_id", reply.SessionID, "error", err)
	}
	return reply, Notice{}, nil
}

func (d *Dashboard) play(cue sounds.Cue) {
	if d.player != nil {
		d.player.Play(cue)
	}
}
