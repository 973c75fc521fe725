// ABOUTME: Public waitlist signup with the operator-facing message for each outcome
// ABOUTME: Duplicate and invalid emails keep the entered value so it can be corrected

package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/2389/sia-console/internal/api"
)

// Waitlist messages
const (
	MsgWaitlistJoined      = "You're on the list!"
	MsgWaitlistDuplicate   = "Email already registered."
	MsgWaitlistFailed      = "Something went wrong. Please try again."
	MsgWaitlistUnreachable = "Could not connect to the server. Please check if the backend is running."
)

// WaitlistOutcome is what the signup form shows after a submit.
type WaitlistOutcome struct {
	// Email is the value to keep in the form.
	Email   string
	Joined  bool
	Message string
}

// JoinWaitlist signs email up. On failure the outcome carries the inline
// message and the entered email.
func JoinWaitlist(ctx context.Context, client *api.Client, email string) (WaitlistOutcome, error) {
	out := WaitlistOutcome{Email: email}

	err := client.JoinWaitlist(ctx, email)
	if err == nil {
		out.Joined = true
		out.Message = MsgWaitlistJoined
		return out, nil
	}
	out.Message = waitlistMessage(err)
	return out, err
}

func waitlistMessage(err error) string {
	var ve *api.ValidationError
	var he *api.HTTPError
	switch {
	case errors.As(err, &ve):
		return ve.Field("email")
	case errors.Is(err, api.ErrNetwork):
		return MsgWaitlistUnreachable
	case errors.As(err, &he):
		if msg := bodyMessage(he.Body); msg != "" {
			return msg
		}
		if he.Status == http.StatusBadRequest {
			return MsgWaitlistDuplicate
		}
		return MsgWaitlistFailed
	default:
		return MsgWaitlistFailed
	}
}

// bodyMessage looks for email[0], email, error, then detail.
func bodyMessage(body string) string {
	var obj map[string]json.RawMessage
	if json.Unmarshal([]byte(body), &obj) != nil {
		return ""
	}
	if raw, ok := obj["email"]; ok {
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 && strings.TrimSpace(list[0]) != "" {
			return list[0]
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	for _, key := range []string{"error", "detail"} {
		var s string
		if raw, ok := obj[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// WaitlistStats returns the public signup count.
func WaitlistStats(ctx context.Context, client *api.Client) (*api.WaitlistStats, error) {
	return client.WaitlistStats(ctx)
}
