// ABOUTME: Mock chat endpoints: send, session detail, reset and close
// ABOUTME: Agents answer with a canned acknowledgement so round-trips are observable

package mockapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2389/sia-console/internal/api"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, u *user) {
	var req api.ChatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"detail": "Invalid request body"})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, map[string]any{"message": []string{"This field may not be blank."}})
		return
	}

	agent := api.AgentType(r.PathValue("agent"))
	if agent == "" {
		agent = api.AgentMark
	}
	if _, err := api.ParseAgentType(string(agent)); err != nil {
		writeError(w, http.StatusNotFound, map[string]any{"detail": "Unknown agent."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	allowed := u.MarkAccess
	if agent == api.AgentHR {
		allowed = u.HRAccess
	}
	if !allowed {
		writeError(w, http.StatusPaymentRequired, map[string]any{"detail": fmt.Sprintf("No active %s subscription.", strings.ToUpper(string(agent)))})
		return
	}

	if req.SessionID == "" {
		req.SessionID = newID()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	sess := s.sessions[req.SessionID]
	if sess == nil {
		active := true
		sess = &chatSession{ChatSession: api.ChatSession{
			SessionID: req.SessionID,
			UserName:  strings.TrimSpace(u.FirstName + " " + u.LastName),
			UserEmail: u.Email,
			CreatedAt: now,
			IsActive:  &active,
		}}
		s.sessions[req.SessionID] = sess
	}

	reply := fmt.Sprintf("[%s] received: %s", strings.ToUpper(string(agent)), req.Message)
	sess.Messages = append(sess.Messages, chatMessage{Role: "user", Content: req.Message}, chatMessage{Role: "assistant", Content: reply})
	sess.MessageCount = len(sess.Messages)
	sess.LastActive = now

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": req.SessionID,
		"response":   reply,
		"agent":      string(agent),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, _ *user) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[r.PathValue("id")]
	if sess == nil {
		writeError(w, http.StatusNotFound, map[string]any{"detail": "Session not found."})
		return
	}
	writeJSON(w, http.StatusOK, sess.ChatSession)
}

type sessionRequest struct {
	SessionID      string `json:"session_id"`
	DeleteMessages bool   `json:"delete_messages"`
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request, _ *user) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, map[string]any{"session_id": []string{"This field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[req.SessionID]
	if sess == nil {
		writeError(w, http.StatusNotFound, map[string]any{"error": "Session not found"})
		return
	}
	sess.Messages = nil
	sess.MessageCount = 0
	writeJSON(w, http.StatusOK, map[string]any{"message": "Session reset"})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request, _ *user) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, map[string]any{"session_id": []string{"This field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[req.SessionID]
	if sess == nil {
		writeError(w, http.StatusNotFound, map[string]any{"error": "Session not found"})
		return
	}
	if req.DeleteMessages {
		delete(s.sessions, req.SessionID)
	} else {
		inactive := false
		sess.IsActive = &inactive
	}
	// The real backend answers close with an empty 200
	w.WriteHeader(http.StatusOK)
}
