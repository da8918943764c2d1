package cache

import "sync"

// DocumentEntry records whether a document exists in a category and, when it
// does, the canonical absolute paths that matched it.
type DocumentEntry struct {
	Exists  bool
	Matched []string
}

// DocumentCache caches document existence answers keyed by
// (category, document). It has no TTL: explicit invalidation on category
// mutation is the only correctness mechanism, so any code path that changes
// a category's dir or patterns must call InvalidateCategory synchronously.
//
// The lock is held only across map mutation, never across a glob call or any
// other I/O, so concurrent lookups for unrelated keys are never serialized
// behind a slow disk scan.
type DocumentCache struct {
	mu      sync.Mutex
	entries map[string]map[string]DocumentEntry
}

// NewDocumentCache creates an empty document existence cache.
func NewDocumentCache() *DocumentCache {
	return &DocumentCache{entries: make(map[string]map[string]DocumentEntry)}
}

// Get returns the cached entry for a document in a category, if present.
func (c *DocumentCache) Get(category, document string) (DocumentEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, ok := c.entries[category]
	if !ok {
		return DocumentEntry{}, false
	}
	entry, ok := docs[document]
	if !ok {
		return DocumentEntry{}, false
	}
	return copyEntry(entry), true
}

// Set records an existence answer for a document in a category.
func (c *DocumentCache) Set(category, document string, exists bool, matched []string) {
	entry := copyEntry(DocumentEntry{Exists: exists, Matched: matched})

	c.mu.Lock()
	defer c.mu.Unlock()

	docs, ok := c.entries[category]
	if !ok {
		docs = make(map[string]DocumentEntry)
		c.entries[category] = docs
	}
	docs[document] = entry
}

// InvalidateCategory removes every entry cached under the given category.
func (c *DocumentCache) InvalidateCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, category)
}

// ClearAll removes every entry from the cache.
func (c *DocumentCache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]map[string]DocumentEntry)
}

// copyEntry clones the matched slice so callers and the cache never alias
// the same backing array.
func copyEntry(entry DocumentEntry) DocumentEntry {
	if entry.Matched == nil {
		return entry
	}
	matched := make([]string, len(entry.Matched))
	copy(matched, entry.Matched)
	return DocumentEntry{Exists: entry.Exists, Matched: matched}
}
