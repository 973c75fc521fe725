// ABOUTME: Mock public waitlist endpoints: stats and join
// ABOUTME: Duplicate signups answer 400 {"email": ["already registered"]}

package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/2389/sia-console/internal/api"
)

func (s *Server) handleWaitlistStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.waitlist)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.WaitlistStats{Count: n})
}

func (s *Server) handleWaitlistJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !api.ValidEmail(email) {
		writeError(w, http.StatusBadRequest, map[string]any{"email": []string{"Enter a valid email address."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.waitlist[email]; dup {
		writeError(w, http.StatusBadRequest, map[string]any{"email": []string{"already registered"}})
		return
	}
	s.waitlist[email] = time.Now()
	writeJSON(w, http.StatusCreated, map[string]any{"message": "You're on the list!", "count": len(s.waitlist)})
}
