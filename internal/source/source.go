// Package source unifies local-filesystem and remote-HTTP content origins
// behind a single accessor. A FileSource is a small immutable value parsed
// from a URI-like string; the Accessor dispatches on its kind and applies
// boundary validation (local) or conditional-request caching (HTTP).
package source

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags the origin type of a FileSource.
type Kind string

const (
	// KindLocal reads from the local filesystem, bounded by allowed roots.
	KindLocal Kind = "local"

	// KindHTTP fetches from a remote HTTP(S) origin through the content cache.
	KindHTTP Kind = "http"
)

// DefaultCacheTTL is the cache lifetime a parsed source starts with. The
// effective staleness policy is driven by response headers; the TTL is the
// upper bound callers may apply when an origin sends no caching headers.
const DefaultCacheTTL = time.Hour

// FileSource describes a content origin. Values are immutable once
// constructed; they are created per request and never persisted.
type FileSource struct {
	Kind         Kind
	BasePath     string
	CacheEnabled bool
	CacheTTL     time.Duration
	AuthHeaders  map[string]string
}

// ParseSource constructs a FileSource from a URI-like string.
//
// Recognized prefixes: "file://" (local, absolute when written file:///),
// "http://" and "https://" (remote). A string with no scheme defaults to a
// local path. Any other scheme is a construction error.
func ParseSource(uri string) (FileSource, error) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return newSource(KindHTTP, uri), nil

	case strings.HasPrefix(uri, "file://"):
		// "file:///abs" keeps its leading slash; "file://rel" is relative.
		return newSource(KindLocal, strings.TrimPrefix(uri, "file://")), nil

	case strings.Contains(uri, "://"):
		scheme, _, _ := strings.Cut(uri, "://")
		return FileSource{}, fmt.Errorf("unsupported URL scheme: %s://", scheme)

	default:
		return newSource(KindLocal, uri), nil
	}
}

func newSource(kind Kind, basePath string) FileSource {
	return FileSource{
		Kind:         kind,
		BasePath:     basePath,
		CacheEnabled: true,
		CacheTTL:     DefaultCacheTTL,
	}
}

// WithAuthHeaders returns a copy of the source carrying the given headers.
func (s FileSource) WithAuthHeaders(headers map[string]string) FileSource {
	if len(headers) == 0 {
		return s
	}
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	s.AuthHeaders = copied
	return s
}
