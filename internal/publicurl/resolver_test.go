// Package publicurl_test tests base URL validation and the override chain.
package publicurl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/session-audio/announcer/internal/publicurl"
)

func TestIsValidBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate string
		valid     bool
	}{
		{name: "http", candidate: "http://example.com", valid: true},
		{name: "https", candidate: "https://cdn.example.com:4648", valid: true},
		{name: "uppercase scheme", candidate: "HTTPS://cdn.example.com", valid: true},
		{name: "surrounding whitespace", candidate: "  http://example.com  ", valid: true},
		{name: "ftp rejected", candidate: "ftp://x", valid: false},
		{name: "bare host rejected", candidate: "not-a-url", valid: false},
		{name: "empty rejected", candidate: "", valid: false},
		{name: "scheme-relative rejected", candidate: "//example.com", valid: false},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.valid, publicurl.IsValidBase(testCase.candidate))
		})
	}
}

func TestResolver_OverridePrecedence(t *testing.T) {
	t.Parallel()

	const (
		relPath     = "audio/abc_join.ogg"
		override    = "https://cdn.example.com"
		requestBase = "http://fallback.local:4684"
	)

	resolver := publicurl.NewResolver("http://configured.example.com")

	// All three tiers present: the per-request override wins.
	assert.Equal(t,
		"https://cdn.example.com/static/audio/abc_join.ogg",
		resolver.Resolve(relPath, override, requestBase))

	// No override: the configured default wins.
	assert.Equal(t,
		"http://configured.example.com/static/audio/abc_join.ogg",
		resolver.Resolve(relPath, "", requestBase))

	// Neither: the request-derived base is used.
	bare := publicurl.NewResolver("")
	assert.Equal(t,
		"http://fallback.local:4684/static/audio/abc_join.ogg",
		bare.Resolve(relPath, "", requestBase))
}

func TestResolver_InvalidBasesFallThrough(t *testing.T) {
	t.Parallel()

	resolver := publicurl.NewResolver("not-a-url")

	// Invalid override and invalid configured default both fall through.
	assert.Equal(t,
		"http://host.local/static/audio/x.ogg",
		resolver.Resolve("audio/x.ogg", "ftp://x", "http://host.local"))
}

func TestResolver_SingleSeparator(t *testing.T) {
	t.Parallel()

	resolver := publicurl.NewResolver("")

	for _, base := range []string{"http://h", "http://h/"} {
		for _, rel := range []string{"audio/x.ogg", "/audio/x.ogg"} {
			assert.Equal(t,
				"http://h/static/audio/x.ogg",
				resolver.Resolve(rel, base, ""))
		}
	}
}

func TestResolver_Idempotent(t *testing.T) {
	t.Parallel()

	resolver := publicurl.NewResolver("https://cdn.example.com/")

	first := resolver.Resolve("audio/x.ogg", "", "http://h")
	second := resolver.Resolve("audio/x.ogg", "", "http://h")
	assert.Equal(t, first, second)
}
