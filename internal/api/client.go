// ABOUTME: Authenticated HTTP client for the SIA backend REST API
// ABOUTME: Bearer decoration, response normalization, and the single refresh-and-retry flow

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/2389/sia-console/internal/session"
)

// DefaultTimeout bounds a single HTTP exchange.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Body   any // JSON-encoded when non-nil

	// Anonymous requests carry no Authorization header and never refresh.
	Anonymous bool
	// NoRefresh sends the token but returns auth failures as-is.
	NoRefresh bool
}

// Response is a successful (2xx) API response.
type Response struct {
	Status int
	// Raw is the body as received.
	Raw json.RawMessage
	// Data is the body with any {"success": .., "data": X} envelope removed.
	// Empty and non-JSON bodies normalize to {}.
	Data json.RawMessage
}

// Decode unmarshals the normalized body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Client talks to the backend on behalf of one Session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
	logger  *slog.Logger

	// Concurrent 401s on the same token share one exchange.
	refreshGroup singleflight.Group
	refreshMu    sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-exchange timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l.With("component", "api") }
}

// NewClient creates a Client for baseURL using sess for credentials.
func NewClient(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		session: sess,
		logger:  slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session this client authenticates with.
func (c *Client) Session() *session.Session {
	return c.session
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req. On a 401/403 it refreshes the access token once and
// retries once; if refreshing is impossible the session is expired and
// ErrSessionExpired is returned.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Anonymous {
		return c.send(ctx, req, "")
	}

	token, err := c.session.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, token)
	if err == nil || req.NoRefresh || !IsAuthFailure(err) {
		return resp, err
	}

	c.logger.Debug("auth rejected, refreshing", "path", req.Path)

	newToken, err := c.refresh(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, errSessionCleared) {
			// Logged out while refreshing; logout already navigated away
			return nil, ErrSessionExpired
		}
		c.logger.Info("refresh failed, ending session", "error", err)
		if clearErr := c.session.Expire(ctx, "session expired"); clearErr != nil {
			c.logger.Error("clearing session", "error", clearErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	return c.send(ctx, req, newToken)
}

// refresh exchanges the stored refresh token for a new access token.
// failedToken is the token the server just rejected: if another goroutine
// already replaced it, that newer token is returned without a second exchange.
func (c *Client) refresh(ctx context.Context, failedToken string) (string, error) {
	// The exchange outlives any one caller; each waiter honours its own ctx.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan(failedToken, func() (any, error) {
		return c.exchange(flightCtx, failedToken)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// exchange performs one refresh unless failedToken was already replaced.
func (c *Client) exchange(ctx context.Context, failedToken string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current, err := c.session.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	if current == "" {
		if failedToken != "" {
			return "", errSessionCleared
		}
		return "", errNotLoggedIn
	}
	if current != failedToken {
		return current, nil
	}

	refreshToken, err := c.session.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if refreshToken == "" {
		return "", errNoRefreshToken
	}

	resp, err := c.send(ctx, Request{
		Method:    http.MethodPost,
		Path:      PathRefresh,
		Body:      map[string]string{"refresh_token": refreshToken},
		Anonymous: true,
	}, "")
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}

	access, rotated := parseTokenPair(resp)
	if access == "" {
		return "", errNoAccessToken
	}

	ok, err := c.session.Refreshed(ctx, access, rotated)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errSessionCleared
	}
	return access, nil
}

// send performs a single HTTP exchange.
func (c *Client) send(ctx context.Context, req Request, token string) (*Response, error) {
	op := req.Method + " " + req.Path

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("building request %s: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("reading body: %w", err)}
	}

	c.logger.Debug("api call", "op", op, "status", httpResp.StatusCode, "duration", time.Since(start))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, newHTTPError(httpResp.StatusCode, raw)
	}

	return &Response{
		Status: httpResp.StatusCode,
		Raw:    raw,
		Data:   normalize(raw),
	}, nil
}

// normalize strips a {"success": .., "data": X} envelope. Empty or invalid
// bodies become {}.
func normalize(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return json.RawMessage("{}")
	}

	var env map[string]json.RawMessage
	if json.Unmarshal(trimmed, &env) == nil {
		if data, ok := env["data"]; ok && string(data) != "null" {
			if _, hasSuccess := env["success"]; hasSuccess || len(env) == 1 {
				return data
			}
		}
	}
	return json.RawMessage(trimmed)
}

// parseTokenPair reads access/refresh tokens from any of the shapes the
// backend has used: data.access_token, access_token, access.
func parseTokenPair(resp *Response) (access, refresh string) {
	for _, body := range []json.RawMessage{resp.Data, resp.Raw} {
		var t struct {
			AccessToken  string `json:"access_token"`
			Access       string `json:"access"`
			RefreshToken string `json:"refresh_token"`
			Refresh      string `json:"refresh"`
		}
		if json.Unmarshal(body, &t) != nil {
			continue
		}
		access = firstNonEmpty(t.AccessToken, t.Access)
		refresh = firstNonEmpty(t.RefreshToken, t.Refresh)
		if access != "" {
			return access, refresh
		}
	}
	return "", ""
}

// unwrapKey returns obj[key] when data is an object holding key, else data.
func unwrapKey(data json.RawMessage, key string) json.RawMessage {
	var obj map[string]json.RawMessage
	if json.Unmarshal(data, &obj) != nil {
		return data
	}
	if inner, ok := obj[key]; ok && string(inner) != "null" {
		return inner
	}
	return data
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
