// ABOUTME: Chat endpoints: session detail, reset, close, and sending messages to agents
// ABOUTME: Session IDs are opaque strings; the backend offers no way to list them

package api

import (
	"context"
	"net/http"
	"net/url"
)

// ChatSession fetches one chat session. The returned SessionID is always id.
func (c *Client) ChatSession(ctx context.Context, id string) (*ChatSession, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: ChatSessionPath(url.PathEscape(id))})
	if err != nil {
		return nil, err
	}
	var s ChatSession
	if err := resp.Decode(&s); err != nil {
		return nil, err
	}
	s.SessionID = id
	return &s, nil
}

// ResetChatSession clears a session's conversation state.
func (c *Client) ResetChatSession(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   PathChatReset,
		Body:   map[string]string{"session_id": id},
	})
	return err
}

// CloseChatSession closes a session, deleting its messages when deleteMessages is set.
func (c *Client) CloseChatSession(ctx context.Context, id string, deleteMessages bool) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   PathChatClose,
		Body: struct {
			SessionID      string `json:"session_id"`
			DeleteMessages bool   `json:"delete_messages"`
		}{id, deleteMessages},
	})
	return err
}

// SendChat sends a message to the default chat endpoint, or to a specific
// agent when agent is non-empty.
func (c *Client) SendChat(ctx context.Context, agent AgentType, req ChatRequest) (*ChatReply, error) {
	path := PathChat
	if agent != "" {
		path = AgentChatPath(agent)
	}
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: req})
	if err != nil {
		return nil, err
	}
	var reply ChatReply
	if err := resp.Decode(&reply); err != nil {
		return nil, err
	}
	if reply.SessionID == "" {
		reply.SessionID = req.SessionID
	}
	return &reply, nil
}
