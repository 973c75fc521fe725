// ABOUTME: Public waitlist endpoints: signup count and join
// ABOUTME: Both are unauthenticated and never touch the session

package api

import (
	"context"
	"net/http"
	"strings"
)

// WaitlistStats returns the number of signups.
func (c *Client) WaitlistStats(ctx context.Context) (*WaitlistStats, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathWaitlistStats, Anonymous: true})
	if err != nil {
		return nil, err
	}
	var s WaitlistStats
	if err := resp.Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// JoinWaitlist signs email up for the waitlist.
func (c *Client) JoinWaitlist(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		msg := "Please enter a valid email address."
		if email == "" {
			msg = "Required"
		}
		return &ValidationError{Fields: map[string]string{"email": msg}}
	}
	_, err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      PathWaitlistJoin,
		Body:      map[string]string{"email": email},
		Anonymous: true,
	})
	return err
}

// ValidEmail is the same loose check a browser applies to type=email inputs.
func ValidEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') || at == len(s)-1 {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n")
}
