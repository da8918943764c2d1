package source

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"mdserve/internal/cache"
	"mdserve/internal/logging"
	"mdserve/pkg/fileops"
)

// Accessor resolves relative paths against a FileSource and reads content
// from it. Local reads pass through the path validator before any file is
// opened; HTTP reads go through the content cache.
//
// Local and HTTP code paths share no lock, so a hung remote origin can never
// block local reads.
type Accessor struct {
	validator *fileops.PathValidator
	cache     *cache.ContentCache
	client    *HTTPClient
}

// NewAccessor creates an accessor with a default HTTP client. The cache may
// be nil, in which case every HTTP read is an unconditional fetch.
func NewAccessor(validator *fileops.PathValidator, contentCache *cache.ContentCache) *Accessor {
	return &Accessor{
		validator: validator,
		cache:     contentCache,
		client:    NewHTTPClient(0, nil),
	}
}

// NewAccessorWithClient creates an accessor using the given HTTP client.
// Used by tests to point at an httptest server with a short timeout.
func NewAccessorWithClient(validator *fileops.PathValidator, contentCache *cache.ContentCache, client *HTTPClient) *Accessor {
	return &Accessor{validator: validator, cache: contentCache, client: client}
}

// ResolvePath joins a relative path onto the source's base: URL composition
// for HTTP sources, filesystem join for local ones. No validation happens
// here; local reads validate at open time.
func (a *Accessor) ResolvePath(relative string, src FileSource) string {
	if src.Kind == KindHTTP {
		if relative == "" {
			return src.BasePath
		}
		base := strings.TrimSuffix(src.BasePath, "/")
		return base + "/" + strings.TrimPrefix(relative, "/")
	}

	base := src.BasePath
	if !filepath.IsAbs(base) {
		if cwd, err := os.Getwd(); err == nil {
			base = filepath.Join(cwd, base)
		}
	}
	return filepath.Join(base, relative)
}

// Exists reports whether the document exists.
//
// Local sources perform a boundary-validated stat. HTTP sources answer an
// optimistic true without any network round trip; the rare false positive
// surfaces as a read error later, which is cheaper than a HEAD request on
// every hot-path existence check. Use ExistsRemote when the answer must be
// authoritative.
func (a *Accessor) Exists(relative string, src FileSource) (bool, error) {
	if src.Kind == KindHTTP {
		return true, nil
	}

	resolved, err := a.validator.ValidatePath(relative, a.localBase(src))
	if err != nil {
		return false, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("cannot stat %s: %w", resolved, err)
	}
	return info.Mode().IsRegular(), nil
}

// ExistsRemote is the HEAD-based existence check for HTTP sources. Local
// sources fall back to the regular stat path.
func (a *Accessor) ExistsRemote(ctx context.Context, relative string, src FileSource) (bool, error) {
	if src.Kind != KindHTTP {
		return a.Exists(relative, src)
	}
	return a.client.Exists(ctx, a.ResolvePath(relative, src), src.AuthHeaders)
}

// ReadFile reads the document's content as text.
//
// Local paths are validated against the allowed roots before the file is
// opened; a boundary violation surfaces as *fileops.SecurityError, a missing
// file as *NotFoundError, and anything else as an IO error with source
// context. HTTP paths delegate to the content cache flow.
func (a *Accessor) ReadFile(ctx context.Context, relative string, src FileSource) (string, error) {
	if src.Kind == KindHTTP {
		return a.readRemote(ctx, a.ResolvePath(relative, src), src)
	}

	resolved, err := a.validator.ValidatePath(relative, a.localBase(src))
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Path: resolved, Kind: KindLocal}
		}
		return "", fmt.Errorf("cannot read %s: %w", resolved, err)
	}
	return string(content), nil
}

// readRemote implements the cache state machine: fresh entries are served
// with zero network calls, stale entries are revalidated with a conditional
// GET, and network failures degrade to stale content when an entry exists.
func (a *Accessor) readRemote(ctx context.Context, url string, src FileSource) (string, error) {
	if !src.CacheEnabled || a.cache == nil {
		resp, err := a.client.Get(ctx, url, src.AuthHeaders)
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}

	entry, ok := a.cache.Get(url)
	if ok && !entry.NeedsValidation() {
		return entry.Content, nil
	}

	if ok {
		resp, notModified, err := a.client.GetConditional(ctx, url, src.AuthHeaders, entry.LastModified, entry.ETag)
		if err != nil {
			// Stale fallback: the origin is unreachable but we still hold
			// the last known content.
			logging.Warn("Revalidation failed, serving stale cache", "url", url, "error", err)
			return entry.Content, nil
		}
		if notModified {
			a.cache.Put(url, entry.Content, refreshedHeaders(entry, resp.Headers))
			return entry.Content, nil
		}
		a.cache.Put(url, resp.Content, resp.Headers)
		return resp.Content, nil
	}

	// Absent: unconditional fetch, no cache to fall back on.
	resp, err := a.client.Get(ctx, url, src.AuthHeaders)
	if err != nil {
		return "", err
	}
	a.cache.Put(url, resp.Content, resp.Headers)
	return resp.Content, nil
}

// refreshedHeaders rebuilds cache headers after a 304, preferring directives
// the origin sent with the 304 over the ones stored in the entry.
func refreshedHeaders(entry cache.Entry, latest http.Header) http.Header {
	merged := http.Header{}
	merge := func(name, stored string) {
		if v := latest.Get(name); v != "" {
			merged.Set(name, v)
		} else if stored != "" {
			merged.Set(name, stored)
		}
	}
	merge("ETag", entry.ETag)
	merge("Last-Modified", entry.LastModified)
	merge("Cache-Control", entry.CacheControl)
	return merged
}

func (a *Accessor) localBase(src FileSource) string {
	base := src.BasePath
	if !filepath.IsAbs(base) {
		if cwd, err := os.Getwd(); err == nil {
			base = filepath.Join(cwd, base)
		}
	}
	return base
}
