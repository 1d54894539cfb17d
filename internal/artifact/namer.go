// Package artifact computes artifact names and manages the directory of
// produced audio files.
//
// The artifact directory itself is the cache index: no database or manifest
// file exists beside the filesystem listing.
package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/session-audio/announcer/internal/core"
	"github.com/session-audio/announcer/internal/text"
)

// Ext is the delivery format extension for all artifacts.
const Ext = ".ogg"

// Filename formats per policy.
const (
	uniqueNameFormat = "%s_%s_%s" + Ext
	reuseNameFormat  = "%s_%s" + Ext
	tempNameFormat   = ".tmp_%s%s"
)

// Policy selects how artifact filenames are derived.
type Policy string

// Supported caching policies.
const (
	// PolicyUnique names every artifact with a fresh random token, so no
	// request ever reuses or overwrites another's file.
	PolicyUnique Policy = "unique"
	// PolicyReuse derives a deterministic name from the event and sanitized
	// identifier, allowing existing artifacts to be served without synthesis.
	PolicyReuse Policy = "reuse"
)

// ParsePolicy validates a raw policy string.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(raw) {
	case PolicyUnique, PolicyReuse:
		return Policy(raw), nil
	default:
		return "", fmt.Errorf("unknown artifact naming policy %q", raw)
	}
}

// Spec describes one artifact to be produced: its identity, its filename under
// the given policy, and the phrase to synthesize. A Spec is immutable after
// construction.
type Spec struct {
	Identifier     string
	SafeIdentifier string
	Action         core.Action
	Dir            string
	Token          string
	Filename       string
	Phrase         string
}

// NewSpec derives an artifact spec from a raw identifier and validated action.
// Under PolicyUnique the filename embeds a fresh 128-bit random token; under
// PolicyReuse it is deterministic for the (identifier, action) pair. The token
// is always generated so temp files never collide between in-flight requests.
func NewSpec(identifier string, action core.Action, dir string, policy Policy) Spec {
	safe := text.Sanitize(identifier)
	token := uuid.NewString()

	var filename string
	if policy == PolicyUnique {
		filename = fmt.Sprintf(uniqueNameFormat, token, safe, action)
	} else {
		filename = fmt.Sprintf(reuseNameFormat, action, safe)
	}

	return Spec{
		Identifier:     identifier,
		SafeIdentifier: safe,
		Action:         action,
		Dir:            dir,
		Token:          token,
		Filename:       filename,
		Phrase:         text.Phrase(identifier, action),
	}
}

// Path returns the absolute path of the final artifact.
func (s Spec) Path() string {
	return filepath.Join(s.Dir, s.Filename)
}

// TempPath returns the path of the intermediate engine output for this spec.
// The name is token-based so concurrent requests never share a temp file.
func (s Spec) TempPath(nativeExt string) string {
	return filepath.Join(s.Dir, fmt.Sprintf(tempNameFormat, s.Token, nativeExt))
}
