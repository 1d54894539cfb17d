// Package text provides identifier sanitization and phrase building for the
// announcer service.
//
// Sanitization normalizes free-text identifiers into filesystem-safe tokens;
// phrase building maps an identifier and a session action to the fixed spoken
// sentence.
package text

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/session-audio/announcer/internal/core"
)

// MaxIdentifierLength bounds the length of a sanitized identifier.
const MaxIdentifierLength = 64

// DefaultIdentifier is returned when sanitization yields an empty string.
const DefaultIdentifier = "user"

// Phrase templates.
const (
	phraseJoinFormat  = "%s has joined the session."
	phraseLeaveFormat = "%s has left the session."
)

// Precompiled patterns for sanitization.
var (
	disallowedPattern = regexp.MustCompile(`[^a-z0-9_-]+`)
	hyphenRunPattern  = regexp.MustCompile(`-{2,}`)
)

// Sanitize normalizes a free-text identifier into a filesystem-safe token.
// The result contains only [a-z0-9_-], is at most MaxIdentifierLength runes
// long, and is never empty. Sanitize is pure and idempotent.
func Sanitize(identifier string) string {
	sanitized := strings.ToLower(strings.TrimSpace(identifier))
	sanitized = disallowedPattern.ReplaceAllString(sanitized, "-")
	sanitized = hyphenRunPattern.ReplaceAllString(sanitized, "-")
	sanitized = strings.Trim(sanitized, "-")

	if len(sanitized) > MaxIdentifierLength {
		sanitized = sanitized[:MaxIdentifierLength]
		// Truncation may expose a trailing hyphen; strip it so the result
		// is stable under repeated sanitization.
		sanitized = strings.Trim(sanitized, "-")
	}

	if sanitized == "" {
		return DefaultIdentifier
	}

	return sanitized
}

// Phrase builds the spoken sentence for an identifier and action. The raw
// identifier is used verbatim; callers validate the action beforehand.
func Phrase(identifier string, action core.Action) string {
	if action == core.ActionJoin {
		return fmt.Sprintf(phraseJoinFormat, identifier)
	}

	return fmt.Sprintf(phraseLeaveFormat, identifier)
}
