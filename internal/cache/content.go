// Package cache holds the two in-process caches of the content core: the
// HTTP content cache with conditional-request staleness tracking, and the
// document existence cache keyed by category.
//
// Both caches are explicitly owned, single-instance objects passed by
// reference to their consumers; there is no ambient package-level state.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"mdserve/internal/logging"
)

// DefaultFreshness is how long an entry that carries validators (ETag or
// Last-Modified) but no max-age directive is served without revalidation.
const DefaultFreshness = 5 * time.Minute

// Entry is a cached HTTP response. Entries are replaced wholesale on every
// refresh and never mutated in place, so a reader can never observe a
// half-written entry.
type Entry struct {
	Content      string    `json:"content"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	CacheControl string    `json:"cache_control,omitempty"`
	CachedAt     time.Time `json:"cached_at"`
}

// NeedsValidation reports whether the entry must be revalidated with a
// conditional request before its content may be served.
//
// Decision order: a no-cache or no-store directive always requires
// validation; an explicit max-age is honored against CachedAt; entries with
// validators but no max-age get the bounded DefaultFreshness window; entries
// with neither directives nor validators are always revalidated.
func (e *Entry) NeedsValidation() bool {
	age := time.Since(e.CachedAt)

	directives := parseCacheControl(e.CacheControl)
	if _, ok := directives["no-cache"]; ok {
		return true
	}
	if _, ok := directives["no-store"]; ok {
		return true
	}
	if maxAge, ok := directives["max-age"]; ok {
		if seconds, err := strconv.Atoi(maxAge); err == nil {
			return age > time.Duration(seconds)*time.Second
		}
	}

	if e.ETag != "" || e.LastModified != "" {
		return age > DefaultFreshness
	}

	return true
}

// parseCacheControl splits a Cache-Control header value into its directives.
// Directive names are lowercased; valueless directives map to "".
func parseCacheControl(header string) map[string]string {
	directives := make(map[string]string)
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		directives[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return directives
}

// ContentCache caches remote document content keyed by URL. Put, Get and
// Clear are the only mutators; each holds the lock only across the map
// operation, never across any I/O performed by callers.
//
// When constructed with a persistence directory, entries are written through
// to disk as JSON keyed by the SHA-256 of the URL, and loaded back on a
// memory miss. Disk faults are absorbed: a corrupt file is removed and
// treated as a miss, and write failures are ignored.
type ContentCache struct {
	mu         sync.Mutex
	entries    map[string]Entry
	persistDir string
}

// NewContentCache creates a memory-only content cache.
func NewContentCache() *ContentCache {
	return &ContentCache{entries: make(map[string]Entry)}
}

// NewPersistentContentCache creates a content cache that writes entries
// through to persistDir, creating the directory if needed.
func NewPersistentContentCache(persistDir string) (*ContentCache, error) {
	if err := os.MkdirAll(persistDir, 0o755); err != nil {
		return nil, err
	}
	return &ContentCache{
		entries:    make(map[string]Entry),
		persistDir: persistDir,
	}, nil
}

// Get returns the cached entry for url, if any.
func (c *ContentCache) Get(url string) (Entry, bool) {
	c.mu.Lock()
	entry, ok := c.entries[url]
	c.mu.Unlock()
	if ok {
		return entry, true
	}

	if c.persistDir == "" {
		return Entry{}, false
	}

	entry, ok = c.loadFromDisk(url)
	if !ok {
		return Entry{}, false
	}
	c.mu.Lock()
	c.entries[url] = entry
	c.mu.Unlock()
	return entry, true
}

// Put stores content for url together with the validation-relevant response
// headers. The entry replaces any previous one wholesale.
func (c *ContentCache) Put(url, content string, headers http.Header) {
	entry := Entry{
		Content:      content,
		ETag:         headers.Get("ETag"),
		LastModified: headers.Get("Last-Modified"),
		CacheControl: headers.Get("Cache-Control"),
		CachedAt:     time.Now(),
	}

	c.mu.Lock()
	c.entries[url] = entry
	c.mu.Unlock()

	if c.persistDir != "" {
		c.writeToDisk(url, entry)
	}
}

// Clear removes every cached entry, including persisted ones.
func (c *ContentCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	if c.persistDir == "" {
		return
	}
	files, err := filepath.Glob(filepath.Join(c.persistDir, "*.json"))
	if err != nil {
		return
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			logging.Debug("Failed to remove persisted cache entry", "file", f, "error", err)
		}
	}
}

// cacheKey produces a filesystem-safe key for a URL.
func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (c *ContentCache) entryPath(url string) string {
	return filepath.Join(c.persistDir, cacheKey(url)+".json")
}

func (c *ContentCache) loadFromDisk(url string) (Entry, bool) {
	path := c.entryPath(url)
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt cache file: remove it and treat as a miss.
		logging.Debug("Removing corrupt cache file", "file", path, "error", err)
		os.Remove(path)
		return Entry{}, false
	}
	return entry, true
}

func (c *ContentCache) writeToDisk(url string, entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := os.WriteFile(c.entryPath(url), data, 0o644); err != nil {
		logging.Debug("Cache write failed", "url", url, "error", err)
	}
}
