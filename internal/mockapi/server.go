// ABOUTME: In-memory stand-in for the SIA backend used by tests and local development
// ABOUTME: Routes, shared state, auth middleware, metrics, and test hooks

package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/apiref"
)

// Options configures a Server.
type Options struct {
	// JWTSecret signs access tokens. Required.
	JWTSecret []byte
	// AccessTTL and RefreshTTL default to 15m and 7 days.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// RotateRefreshTokens makes /refresh/ issue a new refresh token each time.
	RotateRefreshTokens bool
	Logger              *slog.Logger
}

// user is an account known to the mock backend.
type user struct {
	ID           string
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	IsStaff      bool
	IsSuperuser  bool
	Role         string
	HRAccess     bool
	MarkAccess   bool
}

func (u *user) profile() map[string]any {
	return map[string]any{
		"id":           u.ID,
		"email":        u.Email,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"is_staff":     u.IsStaff,
		"is_superuser": u.IsSuperuser,
		"role":         u.Role,
	}
}

type refreshGrant struct {
	UserID    string
	ExpiresAt time.Time
}

type tenant struct {
	api.Tenant
	Agents map[api.AgentType]api.ConfigureAgentRequest
}

type chatSession struct {
	api.ChatSession
	Messages []chatMessage
}

type chatMessage struct {
	Role    string
	Content string
}

type failure struct {
	Status int
	Body   string
}

// Server is the mock backend.
type Server struct {
	opts   Options
	tokens *tokenIssuer
	logger *slog.Logger

	mu          sync.Mutex
	users       map[string]*user // by email
	usersByID   map[string]*user
	refresh     map[string]refreshGrant
	epoch       int
	tenants     map[string]*tenant
	tenantOrder []string
	sessions    map[string]*chatSession
	waitlist    map[string]time.Time
	failures    map[string]failure // by "METHOD path"

	refreshCalls atomic.Int64

	mux      *http.ServeMux
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New creates an empty mock backend.
func New(opts Options) (*Server, error) {
	if len(opts.JWTSecret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:      opts,
		tokens:    newTokenIssuer(opts.JWTSecret),
		logger:    logger.With("component", "mockapi"),
		users:     make(map[string]*user),
		usersByID: make(map[string]*user),
		refresh:   make(map[string]refreshGrant),
		tenants:   make(map[string]*tenant),
		sessions:  make(map[string]*chatSession),
		waitlist:  make(map[string]time.Time),
		failures:  make(map[string]failure),
		registry:  prometheus.NewRegistry(),
	}

	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sia_mockapi",
		Name:      "requests_total",
		Help:      "Requests served, by route and status code.",
	}, []string{"route", "code"})
	s.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sia_mockapi",
		Name:      "request_duration_seconds",
		Help:      "Request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	s.registry.MustRegister(s.requests, s.latency)

	s.mux = s.routes()
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+api.PathRegister+"{$}", s.handleRegister)
	mux.HandleFunc("POST "+api.PathLogin+"{$}", s.handleLogin)
	mux.HandleFunc("POST "+api.PathRefresh+"{$}", s.handleRefresh)
	mux.HandleFunc("POST "+api.PathLogout+"{$}", s.authed(s.handleLogout))
	mux.HandleFunc("GET "+api.PathProfile+"{$}", s.authed(s.handleProfile))
	mux.HandleFunc("PUT "+api.PathProfileUpdate+"{$}", s.authed(s.handleProfileUpdate))
	mux.HandleFunc("GET "+api.PathAccess+"{$}", s.authed(s.handleAccess))
	mux.HandleFunc("GET "+api.PathSessionValidate+"{$}", s.authed(s.handleValidate))

	mux.HandleFunc("GET "+api.PathTenants+"{$}", s.staff(s.handleListTenants))
	mux.HandleFunc("POST "+api.PathTenants+"{$}", s.staff(s.handleCreateTenant))
	mux.HandleFunc("GET /api/tenants/{id}/{$}", s.staff(s.handleGetTenant))
	mux.HandleFunc("POST /api/tenants/{id}/subscription/{$}", s.staff(s.handleSubscription))
	mux.HandleFunc("POST /api/tenants/{id}/agents/{$}", s.staff(s.handleConfigureAgent))
	mux.HandleFunc("GET "+api.PathAgentStatus+"{$}", s.authed(s.handleAgentStatus))

	mux.HandleFunc("POST "+api.PathChat+"{$}", s.authed(s.handleChat))
	mux.HandleFunc("POST /api/tenants/v2/agents/{agent}/chat/{$}", s.authed(s.handleChat))
	mux.HandleFunc("GET /api/chat/session/{id}/{$}", s.authed(s.handleGetSession))
	mux.HandleFunc("POST "+api.PathChatReset+"{$}", s.authed(s.handleResetSession))
	mux.HandleFunc("POST "+api.PathChatClose+"{$}", s.authed(s.handleCloseSession))

	mux.HandleFunc("GET "+api.PathWaitlistStats+"{$}", s.handleWaitlistStats)
	mux.HandleFunc("POST "+api.PathWaitlistJoin+"{$}", s.handleWaitlistJoin)

	mux.HandleFunc("GET /api/docs/{$}", s.handleDocs)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return mux
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.instrument(s.mux), "sia-mockapi")
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument applies injected failures, request metrics and debug logging.
func (s *Server) instrument(next *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, route := next.Handler(r)
		if route == "" {
			route = "unmatched"
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		if f, ok := s.injectedFailure(r.Method, r.URL.Path); ok {
			rec.Header().Set("Content-Type", "application/json")
			rec.WriteHeader(f.Status)
			_, _ = rec.Write([]byte(f.Body))
		} else {
			next.ServeHTTP(rec, r)
		}

		s.requests.WithLabelValues(route, fmt.Sprintf("%d", rec.status)).Inc()
		s.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

// authed rejects requests without a valid, current access token.
func (s *Server) authed(next func(http.ResponseWriter, *http.Request, *user)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
		if errMsg != "" {
			writeError(w, http.StatusUnauthorized, map[string]any{"detail": errMsg})
			return
		}
		userID, epoch, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, map[string]any{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}

		s.mu.Lock()
		u := s.usersByID[userID]
		current := s.epoch
		s.mu.Unlock()

		if u == nil || epoch != current {
			writeError(w, http.StatusUnauthorized, map[string]any{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next(w, r, u)
	}
}

// staff is authed plus an is_staff check.
func (s *Server) staff(next func(http.ResponseWriter, *http.Request, *user)) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, u *user) {
		if !u.IsStaff {
			writeError(w, http.StatusForbidden, map[string]any{"detail": "You do not have permission to perform this action."})
			return
		}
		next(w, r, u)
	})
}

// AddUser creates an account. Staff accounts can manage tenants.
func (s *Server) AddUser(email, password, firstName, lastName string, isStaff bool) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		return "", fmt.Errorf("user %s already exists", email)
	}
	u := &user{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		IsStaff:      isStaff,
		IsSuperuser:  isStaff,
		Role:         "member",
		HRAccess:     true,
		MarkAccess:   true,
	}
	if isStaff {
		u.Role = "admin"
	}
	s.users[email] = u
	s.usersByID[u.ID] = u
	return u.ID, nil
}

// SetAccess changes which agents a user may use.
func (s *Server) SetAccess(email string, hr, mark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.users[strings.ToLower(email)]; u != nil {
		u.HRAccess = hr
		u.MarkAccess = mark
	}
}

// ExpireAccessTokens invalidates every access token issued so far.
// Refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
}

// RevokeRefreshTokens invalidates every refresh token.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = make(map[string]refreshGrant)
}

// RefreshCalls returns how many refresh requests were received.
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// FailEndpoint makes method+path answer status with body until cleared.
// An empty body yields {"detail": "<status text>"}.
func (s *Server) FailEndpoint(method, path string, status int, body string) {
	if body == "" {
		b, _ := json.Marshal(map[string]string{"detail": http.StatusText(status)})
		body = string(b)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{Status: status, Body: body}
}

// ClearFailures removes every injected failure.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

func (s *Server) injectedFailure(method, path string) (failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.failures[method+" "+path]
	return f, ok
}

// issue creates a token pair for u. Caller must not hold s.mu.
func (s *Server) issue(u *user) (access, refresh string, err error) {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	access, err = s.tokens.Generate(u.ID, epoch, s.opts.AccessTTL)
	if err != nil {
		return "", "", fmt.Errorf("signing access token: %w", err)
	}
	refresh = newRefreshToken()

	s.mu.Lock()
	s.refresh[refresh] = refreshGrant{UserID: u.ID, ExpiresAt: time.Now().Add(s.opts.RefreshTTL)}
	s.mu.Unlock()
	return access, refresh, nil
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	html, err := apiref.HTML(apiref.Catalogue())
	if err != nil {
		s.logger.Error("rendering api docs", "error", err)
		writeError(w, http.StatusInternalServerError, map[string]any{"detail": "docs unavailable"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body map[string]any) {
	writeJSON(w, status, body)
}

// envelope wraps data the way the auth endpoints do.
func envelope(data any) map[string]any {
	return map[string]any{"success": true, "data": data}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}
