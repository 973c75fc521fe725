// ABOUTME: Error taxonomy for the backend API client
// ABOUTME: Validation, HTTP, network and session-expiry failures, matched with errors.Is/As

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel errors
var (
	// ErrSessionExpired means the access token was rejected and could not be
	// refreshed. Credentials are already cleared when this is returned.
	ErrSessionExpired = errors.New("session expired")

	// ErrNetwork matches every *NetworkError.
	ErrNetwork = errors.New("network error")

	errNoRefreshToken = errors.New("no refresh token stored")
	errNoAccessToken  = errors.New("refresh response carried no access token")
	errSessionCleared = errors.New("session cleared during refresh")
	errNotLoggedIn    = errors.New("no access token stored")
)

// ValidationError reports client-side field problems. No request was sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Field returns the message for one field, or "".
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	Status  int
	Message string              // server-provided message, may be empty
	Fields  map[string][]string // per-field messages, e.g. {"email": ["already registered"]}
	Body    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	if msg := e.firstFieldMessage(); msg != "" {
		return fmt.Sprintf("%d: %s", e.Status, msg)
	}
	return fmt.Sprintf("%d: %s", e.Status, http.StatusText(e.Status))
}

// MessageOr returns the server message or fallback when the server gave none.
func (e *HTTPError) MessageOr(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// Field returns the first message for a field, or "".
func (e *HTTPError) Field(name string) string {
	if msgs := e.Fields[name]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// IsAuth reports whether the status is 401 or 403.
func (e *HTTPError) IsAuth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

func (e *HTTPError) firstFieldMessage() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msg := e.Field(k); msg != "" {
			return msg
		}
	}
	return ""
}

// NetworkError wraps a transport failure: connection refused, DNS, timeout, truncated body.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNetwork) match.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// IsAuthFailure reports whether err is a 401/403 HTTPError.
func IsAuthFailure(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.IsAuth()
}

// messageKeys are checked in order for a server-provided message.
var messageKeys = []string{"message", "error", "detail"}

// newHTTPError builds an HTTPError from a response body. Bodies that are not
// JSON objects leave Message and Fields empty.
func newHTTPError(status int, body []byte) *HTTPError {
	he := &HTTPError{Status: status, Body: string(body)}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return he
	}

	// {"success": false, "data": {...}} and {"errors": {...}} carry fields one level down
	for _, nested := range []string{"errors", "data"} {
		if inner, ok := obj[nested]; ok {
			var innerObj map[string]json.RawMessage
			if json.Unmarshal(inner, &innerObj) == nil {
				for k, v := range innerObj {
					if _, exists := obj[k]; !exists {
						obj[k] = v
					}
				}
			}
		}
	}

	for _, k := range messageKeys {
		var s string
		if raw, ok := obj[k]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			he.Message = s
			break
		}
	}

	for k, raw := range obj {
		if k == "success" || k == "errors" || k == "data" || isMessageKey(k) {
			continue
		}
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			he.setField(k, list)
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			he.setField(k, []string{s})
		}
	}

	return he
}

func (e *HTTPError) setField(name string, msgs []string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[name] = msgs
}

func isMessageKey(k string) bool {
	for _, m := range messageKeys {
		if k == m {
			return true
		}
	}
	return false
}
