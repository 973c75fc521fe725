// ABOUTME: Authentication endpoints: login, logout, session validation, profile and access
// ABOUTME: Login and logout are the only calls that write or clear the session

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/2389/sia-console/internal/session"
)

// Login exchanges email and password for a token pair and starts the session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	fields := map[string]string{}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "Required"
	}
	if password == "" {
		fields["password"] = "Required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	resp, err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      PathLogin,
		Body:      map[string]string{"email": strings.TrimSpace(email), "password": password},
		Anonymous: true,
	})
	if err != nil {
		return nil, err
	}

	access, refresh := parseTokenPair(resp)
	if access == "" {
		return nil, fmt.Errorf("login: %w", errNoAccessToken)
	}

	var body struct {
		User json.RawMessage `json:"user"`
	}
	_ = json.Unmarshal(resp.Data, &body)

	result := &LoginResult{AccessToken: access, RefreshToken: refresh, User: body.User}
	if err := c.session.Begin(ctx, sessionCredentials(result), body.User); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	c.logger.Info("logged in", "email", strings.TrimSpace(email))
	return result, nil
}

// Register creates an account. The backend answers with a token pair, which
// starts a session exactly as Login does.
func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) (*LoginResult, error) {
	fields := map[string]string{}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "Required"
	} else if !ValidEmail(strings.TrimSpace(email)) {
		fields["email"] = "Please enter a valid email address."
	}
	if len(password) < 8 {
		fields["password"] = "At least 8 characters"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	resp, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   PathRegister,
		Body: map[string]string{
			"email":      strings.TrimSpace(email),
			"password":   password,
			"first_name": firstName,
			"last_name":  lastName,
		},
		Anonymous: true,
	})
	if err != nil {
		return nil, err
	}

	access, refresh := parseTokenPair(resp)
	var body struct {
		User json.RawMessage `json:"user"`
	}
	_ = json.Unmarshal(resp.Data, &body)
	result := &LoginResult{AccessToken: access, RefreshToken: refresh, User: body.User}
	if access == "" {
		// Some deployments require a separate login after signup
		return result, nil
	}
	if err := c.session.Begin(ctx, sessionCredentials(result), body.User); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return result, nil
}

func sessionCredentials(r *LoginResult) session.Credentials {
	return session.Credentials{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

// Logout revokes the session server-side, best effort, then clears local
// credentials and navigates to the entry point no matter what the server said.
// The returned error reports only the server call.
func (c *Client) Logout(ctx context.Context) error {
	token, _ := c.session.AccessToken(ctx)
	refresh, _ := c.session.RefreshToken(ctx)

	var serverErr error
	if token != "" {
		body := map[string]string{}
		if refresh != "" {
			body["refresh_token"] = refresh
		}
		_, serverErr = c.Do(ctx, Request{
			Method:    http.MethodPost,
			Path:      PathLogout,
			Body:      body,
			NoRefresh: true,
		})
	}

	if err := c.session.Expire(ctx, "logged out"); err != nil {
		return err
	}
	if serverErr != nil {
		return fmt.Errorf("revoking server session: %w", serverErr)
	}
	return nil
}

// ValidateSession asks the backend whether the current token is valid.
// An invalid token goes through the refresh flow like any protected call.
func (c *Client) ValidateSession(ctx context.Context) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathSessionValidate})
	return err
}

// AdminProfile fetches the caller's profile. Accepts {"user": {...}} or the bare object.
func (c *Client) AdminProfile(ctx context.Context) (*AdminProfile, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathProfile})
	if err != nil {
		return nil, err
	}
	var p AdminProfile
	if err := json.Unmarshal(unwrapKey(resp.Data, "user"), &p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &p, nil
}

// UserProfile fetches the caller's profile in its settings-page shape.
func (c *Client) UserProfile(ctx context.Context) (*UserProfile, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathProfile})
	if err != nil {
		return nil, err
	}
	var p UserProfile
	if err := json.Unmarshal(unwrapKey(resp.Data, "user"), &p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile changes the caller's first and last name.
func (c *Client) UpdateProfile(ctx context.Context, firstName, lastName string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   PathProfileUpdate,
		Body:   map[string]string{"first_name": firstName, "last_name": lastName},
	})
	return err
}

// AgentAccess fetches which agents the caller is subscribed to.
func (c *Client) AgentAccess(ctx context.Context) (*AgentAccess, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathAccess})
	if err != nil {
		return nil, err
	}
	var a AgentAccess
	if err := resp.Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}
