// Package discovery locates category documents on disk using glob patterns,
// bounded by a validated search root.
package discovery

import (
	"os"
	"path/filepath"
	"strings"

	"mdserve/internal/logging"
	"mdserve/pkg/fileops"

	"github.com/bmatcuk/doublestar/v4"
)

// Safety limits for glob operations.
const (
	// MaxGlobDepth is the maximum number of directory segments below the
	// search root a match may have. Deeper matches are silently excluded,
	// which also bounds traversal through symlink cycles without a separate
	// cycle detector.
	MaxGlobDepth = 8

	// MaxDocumentsPerGlob caps the total number of files a single search
	// may return.
	MaxDocumentsPerGlob = 100

	// DefaultExtension is appended to a pattern with no extension when the
	// bare pattern matched nothing.
	DefaultExtension = ".md"
)

// GlobSearch enumerates files under searchDir matching the given patterns,
// in pattern order, de-duplicated by canonical path. Recursive "**" patterns
// are supported.
//
// The search never escapes searchDir: every candidate is resolved to its
// canonical form and dropped if it lies outside the root (symlink escape).
// Per-candidate faults - broken symlinks, unreadable entries, bad patterns -
// are logged and reduce the result set; they never abort the whole search.
//
// searchDir must already have passed boundary validation; GlobSearch bounds
// results to it but does not re-check it against any allowed-roots policy.
func GlobSearch(searchDir string, patterns []string) []string {
	rootCanonical, err := fileops.CanonicalPath(searchDir)
	if err != nil {
		logging.Warn("Cannot canonicalize search directory", "dir", searchDir, "error", err)
		return nil
	}

	var matched []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		if len(matched) >= MaxDocumentsPerGlob {
			logging.Warn("Reached maximum document limit for glob search", "limit", MaxDocumentsPerGlob)
			break
		}

		found := globPattern(searchDir, rootCanonical, pattern, seen, &matched)

		// Extension fallback: a bare name that matched nothing is retried
		// with the default extension. An exact match always wins because the
		// fallback only runs when the original pattern found nothing.
		if !found && filepath.Ext(pattern) == "" {
			globPattern(searchDir, rootCanonical, pattern+DefaultExtension, seen, &matched)
		}
	}

	return matched
}

// globPattern runs a single pattern and appends surviving candidates to
// matched. It reports whether the pattern itself produced any matches,
// before per-candidate filtering.
func globPattern(searchDir, rootCanonical, pattern string, seen map[string]bool, matched *[]string) bool {
	relMatches, err := doublestar.Glob(os.DirFS(searchDir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		logging.Warn("Glob pattern failed", "pattern", pattern, "error", err)
		return false
	}

	for _, rel := range relMatches {
		if len(*matched) >= MaxDocumentsPerGlob {
			break
		}

		candidate := filepath.Join(searchDir, rel)

		resolved, err := filepath.EvalSymlinks(candidate)
		if err != nil {
			// Broken symlink or race with deletion: drop this candidate only.
			logging.Warn("Failed to resolve glob candidate", "path", candidate, "error", err)
			continue
		}

		info, err := os.Stat(resolved)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		if seen[resolved] {
			continue
		}

		relToRoot, err := filepath.Rel(rootCanonical, resolved)
		if err != nil || strings.HasPrefix(relToRoot, "..") {
			// Symlink escape out of the search root.
			logging.Debug("Skipping file outside search directory", "path", resolved)
			continue
		}

		if strings.Count(relToRoot, string(filepath.Separator)) > MaxGlobDepth {
			continue
		}

		seen[resolved] = true
		*matched = append(*matched, resolved)
	}

	return len(relMatches) > 0
}
