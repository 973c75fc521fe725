// ABOUTME: Transient notices shown to the operator after console actions
// ABOUTME: Maps the error taxonomy to the text an operator sees

package console

import (
	"errors"
	"time"

	"github.com/2389/sia-console/internal/api"
)

// NoticeTTL is how long a notice stays visible.
const NoticeTTL = 3500 * time.Millisecond

// Kind classifies a notice.
type Kind string

const (
	KindOK   Kind = "ok"
	KindErr  Kind = "err"
	KindInfo Kind = "info"
)

// Notice is a short-lived message about the outcome of an action.
// The zero Notice means there is nothing to show.
type Notice struct {
	Kind    Kind
	Message string
	At      time.Time
}

// Empty reports whether there is nothing to show.
func (n Notice) Empty() bool {
	return n.Message == ""
}

// Expired reports whether the notice should no longer be shown at now.
func (n Notice) Expired(now time.Time) bool {
	return now.Sub(n.At) >= NoticeTTL
}

func okNotice(msg string) Notice {
	return Notice{Kind: KindOK, Message: msg, At: time.Now()}
}

func errNotice(msg string) Notice {
	return Notice{Kind: KindErr, Message: msg, At: time.Now()}
}

func infoNotice(msg string) Notice {
	return Notice{Kind: KindInfo, Message: msg, At: time.Now()}
}

// Notice texts
const (
	MsgNetworkError   = "Network error"
	MsgSessionExpired = "Session expired. Please log in again."
)

// failureNotice picks the text for a failed action. Validation errors are
// shown inline on their fields, so they produce no notice.
func failureNotice(err error, fallback string) Notice {
	return failureNoticeWith(err, fallback, true)
}

// fixedFailureNotice is failureNotice for actions whose failure text never
// includes the server message.
func fixedFailureNotice(err error, fallback string) Notice {
	return failureNoticeWith(err, fallback, false)
}

func failureNoticeWith(err error, fallback string, useServerMessage bool) Notice {
	var ve *api.ValidationError
	var he *api.HTTPError
	switch {
	case err == nil:
		return Notice{}
	case errors.As(err, &ve):
		return Notice{}
	case errors.Is(err, api.ErrSessionExpired):
		return infoNotice(MsgSessionExpired)
	case errors.Is(err, api.ErrNetwork):
		return errNotice(MsgNetworkError)
	case errors.As(err, &he) && useServerMessage:
		return errNotice(he.MessageOr(fallback))
	default:
		return errNotice(fallback)
	}
}
