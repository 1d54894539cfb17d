// Package publicurl builds absolute URLs to stored artifacts.
//
// The base of the URL is resolved through a three-tier override chain: a
// per-request override, a process-wide configured default, and finally a base
// derived from the inbound request itself. Invalid candidates fall through to
// the next tier rather than producing a broken URL.
package publicurl

import (
	"strings"
)

// StaticPrefix is the public path under which artifacts are served.
const StaticPrefix = "/static"

// URL scheme prefixes accepted for base URLs.
const (
	schemeHTTP  = "http://"
	schemeHTTPS = "https://"
)

// IsValidBase reports whether a candidate base URL is syntactically usable,
// meaning it begins with http:// or https://.
func IsValidBase(candidate string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(candidate))

	return strings.HasPrefix(trimmed, schemeHTTP) ||
		strings.HasPrefix(trimmed, schemeHTTPS)
}

// Resolver resolves artifact paths to absolute URLs.
type Resolver struct {
	configuredBase string
}

// NewResolver creates a resolver with an optional process-wide default base
// URL. An empty or invalid value simply disables the middle tier.
func NewResolver(configuredBase string) *Resolver {
	return &Resolver{configuredBase: strings.TrimSpace(configuredBase)}
}

// Resolve builds the absolute URL for a path relative to the static root.
// The first syntactically valid base wins: the per-request override, then the
// configured default, then the request-derived base. Resolution is pure, so
// identical inputs always produce identical output.
func (r *Resolver) Resolve(relPath, override, requestBase string) string {
	base := requestBase
	if IsValidBase(override) {
		base = override
	} else if IsValidBase(r.configuredBase) {
		base = r.configuredBase
	}

	return join(base, StaticPrefix+"/"+strings.TrimLeft(relPath, "/"))
}

// join concatenates a base URL and a path with exactly one separator,
// regardless of trailing or leading slashes in either input.
func join(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
