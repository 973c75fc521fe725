// ABOUTME: Test harness that runs the mock backend on an httptest server
// ABOUTME: Seeds one staff account so callers can log in immediately

package mockapi

import (
	"net/http/httptest"
	"testing"
)

// Seeded staff credentials used by NewHarness.
const (
	HarnessEmail    = "admin@sia.test"
	HarnessPassword = "correct-horse-battery"
	harnessSecret   = "harness-secret-0123456789abcdef"
)

// Harness is a running mock backend.
type Harness struct {
	*Server
	HTTP *httptest.Server
	URL  string
}

// NewHarness starts a mock backend with a seeded staff account. It is shut
// down when the test ends.
func NewHarness(tb testing.TB, opts ...func(*Options)) *Harness {
	tb.Helper()

	o := Options{JWTSecret: []byte(harnessSecret)}
	for _, opt := range opts {
		opt(&o)
	}
	srv, err := New(o)
	if err != nil {
		tb.Fatalf("creating mock backend: %v", err)
	}
	if _, err := srv.AddUser(HarnessEmail, HarnessPassword, "Ada", "Admin", true); err != nil {
		tb.Fatalf("seeding admin: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	tb.Cleanup(ts.Close)
	return &Harness{Server: srv, HTTP: ts, URL: ts.URL}
}
