// ABOUTME: Tests for the endpoint catalogue and its table, Markdown and HTML renderings
// ABOUTME: Checks grouping order and that every consumed endpoint is documented

package apiref

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sia-console/internal/api"
)

func TestCatalogueCoversConsumedEndpoints(t *testing.T) {
	paths := make(map[string]bool)
	for _, ep := range Catalogue() {
		paths[ep.Method+" "+ep.Path] = true
	}

	for _, want := range []string{
		"POST " + api.PathLogin,
		"POST " + api.PathRefresh,
		"POST " + api.PathLogout,
		"GET " + api.PathProfile,
		"PUT " + api.PathProfileUpdate,
		"GET " + api.PathAccess,
		"GET " + api.PathSessionValidate,
		"GET " + api.PathTenants,
		"POST " + api.PathTenants,
		"GET " + api.PathAgentStatus,
		"POST " + api.PathChatReset,
		"POST " + api.PathChatClose,
		"GET " + api.PathWaitlistStats,
		"POST " + api.PathWaitlistJoin,
	} {
		assert.True(t, paths[want], "missing %s", want)
	}
}

func TestGroupsKeepOrder(t *testing.T) {
	groups := Groups(Catalogue())
	require.NotEmpty(t, groups)
	assert.Equal(t, "Authentication", groups[0])
	assert.Equal(t, "Waitlist", groups[len(groups)-1])
}

func TestEndpointURL(t *testing.T) {
	ep := Endpoint{Path: "/api/waitlist/stats/"}
	assert.Equal(t, "http://localhost:8000/api/waitlist/stats/", ep.URL("http://localhost:8000/"))
}

func TestMarkdown(t *testing.T) {
	md := Markdown([]Endpoint{
		{Group: "G", Method: "GET", Path: "/a/", Body: "x | y", Description: "first"},
	})
	assert.Contains(t, md, "## G")
	assert.Contains(t, md, "| `GET` | `/a/` | x \\| y | first |")
}

func TestHTML(t *testing.T) {
	html, err := HTML(Catalogue())
	require.NoError(t, err)

	s := string(html)
	assert.Contains(t, s, "<h1>SIA API Reference</h1>")
	assert.Contains(t, s, "<table>")
	assert.Contains(t, s, "<code>/api/auth/login/</code>")
}

func TestWriteTable(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, Catalogue(), "http://api.test"))

	out := buf.String()
	assert.Contains(t, out, "Authentication\n")
	assert.Contains(t, out, "http://api.test/api/auth/login/")
	assert.True(t, strings.Index(out, "Authentication") < strings.Index(out, "Waitlist"))
}
