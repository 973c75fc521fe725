// ABOUTME: Mock auth endpoints: register, login, refresh, logout, profile, access, validate
// ABOUTME: Auth responses use the {success, data} envelope the real backend returns

package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/sia-console/internal/api"
)

func newID() string {
	return uuid.NewString()
}

type credentialsRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	fields := map[string]any{}
	if !api.ValidEmail(req.Email) {
		fields["email"] = []string{"Enter a valid email address."}
	}
	if len(req.Password) < 8 {
		fields["password"] = []string{"Ensure this field has at least 8 characters."}
	}
	if len(fields) > 0 {
		writeError(w, http.StatusBadRequest, map[string]any{"success": false, "errors": fields})
		return
	}

	if _, err := s.AddUser(req.Email, req.Password, req.FirstName, req.LastName, false); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"success": false, "errors": map[string]any{"email": []string{"already registered"}}})
		return
	}

	s.mu.Lock()
	u := s.users[req.Email]
	s.mu.Unlock()
	s.respondWithTokens(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	u := s.users[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()

	if u == nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
		return
	}

	s.respondWithTokens(w, http.StatusOK, u)
}

func (s *Server) respondWithTokens(w http.ResponseWriter, status int, u *user) {
	access, refresh, err := s.issue(u)
	if err != nil {
		s.logger.Error("issuing tokens", "error", err)
		writeError(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Could not issue tokens"})
		return
	}
	s.mu.Lock()
	profile := u.profile()
	s.mu.Unlock()
	writeJSON(w, status, envelope(map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          profile,
	}))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	var req struct {
		RefreshToken string `json:"refresh_token"`
		Refresh      string `json:"refresh"`
	}
	_ = decodeBody(r, &req)
	token := req.RefreshToken
	if token == "" {
		token = req.Refresh
	}

	s.mu.Lock()
	grant, ok := s.refresh[token]
	var u *user
	if ok {
		u = s.usersByID[grant.UserID]
	}
	if ok && time.Now().After(grant.ExpiresAt) {
		delete(s.refresh, token)
		ok = false
	}
	epoch := s.epoch
	s.mu.Unlock()

	if !ok || u == nil {
		writeError(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid or expired refresh token"})
		return
	}

	access, err := s.tokens.Generate(u.ID, epoch, s.opts.AccessTTL)
	if err != nil {
		s.logger.Error("signing access token", "error", err)
		writeError(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Could not issue token"})
		return
	}

	data := map[string]any{"access_token": access}
	if s.opts.RotateRefreshTokens {
		rotated := newRefreshToken()
		s.mu.Lock()
		delete(s.refresh, token)
		s.refresh[rotated] = refreshGrant{UserID: u.ID, ExpiresAt: time.Now().Add(s.opts.RefreshTTL)}
		s.mu.Unlock()
		data["refresh_token"] = rotated
	}
	writeJSON(w, http.StatusOK, envelope(data))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, u *user) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = decodeBody(r, &req)

	if req.RefreshToken != "" {
		s.mu.Lock()
		if grant, ok := s.refresh[req.RefreshToken]; ok && grant.UserID == u.ID {
			delete(s.refresh, req.RefreshToken)
		}
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, envelope(map[string]any{"message": "Logged out"}))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, u *user) {
	s.mu.Lock()
	profile := u.profile()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, envelope(map[string]any{"user": profile}))
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request, u *user) {
	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	profile := u.profile()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, envelope(map[string]any{"user": profile}))
}

func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request, u *user) {
	s.mu.Lock()
	hr, mark := u.HRAccess, u.MarkAccess
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"has_hr": hr, "has_marketing": mark})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request, u *user) {
	writeJSON(w, http.StatusOK, envelope(map[string]any{"valid": true, "user_id": u.ID}))
}
