package fileops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator validates file paths against a fixed set of allowed root
// directories. The root set is canonicalized once at construction time and is
// immutable for the validator's lifetime.
//
// A validator with an empty root set rejects every path.
type PathValidator struct {
	allowedRoots []string
}

// NewPathValidator creates a validator for the given allowed roots. Each root
// is resolved to its canonical absolute form; roots that cannot be resolved
// at all are rejected so a typo cannot silently widen the boundary.
func NewPathValidator(allowedRoots []string) (*PathValidator, error) {
	roots := make([]string, 0, len(allowedRoots))
	for _, root := range allowedRoots {
		if strings.TrimSpace(root) == "" {
			return nil, fmt.Errorf("allowed root cannot be empty")
		}
		canonical, err := CanonicalPath(ExpandPath(root))
		if err != nil {
			return nil, fmt.Errorf("cannot canonicalize allowed root %q: %w", root, err)
		}
		roots = append(roots, canonical)
	}
	return &PathValidator{allowedRoots: roots}, nil
}

// AllowedRoots returns a copy of the canonical root set.
func (v *PathValidator) AllowedRoots() []string {
	roots := make([]string, len(v.allowedRoots))
	copy(roots, v.allowedRoots)
	return roots
}

// ValidatePath validates a candidate path against the allowed roots.
//
// A relative candidate is joined onto baseDir before resolution. The joined
// path is canonicalized (symlinks followed, "." and ".." eliminated) and
// accepted iff the result equals or descends from at least one allowed root.
// Cross-root references such as "../otherRoot/file.md" are legitimate as long
// as the resolved target stays inside some root.
//
// On success the canonical absolute path is returned. Every failure mode -
// absolute-path injection, traversal that escapes the roots, and symlinks
// whose target lies outside the roots - yields a *SecurityError.
func (v *PathValidator) ValidatePath(candidate, baseDir string) (string, error) {
	// Normalize separators so Windows-style traversal input is caught too.
	normalized := strings.ReplaceAll(candidate, "\\", "/")

	var joined string
	if filepath.IsAbs(normalized) {
		joined = normalized
	} else {
		joined = filepath.Join(baseDir, normalized)
	}

	resolved, err := CanonicalPath(joined)
	if err != nil {
		return "", &SecurityError{Path: candidate, Err: err}
	}

	for _, root := range v.allowedRoots {
		if isWithinRoot(resolved, root) {
			return resolved, nil
		}
	}
	return "", &SecurityError{Path: resolved}
}

// CanonicalPath resolves a path to its canonical absolute form: symlinks
// followed, "." and ".." segments eliminated. Unlike filepath.EvalSymlinks it
// tolerates paths that do not exist yet by resolving the deepest existing
// ancestor and rejoining the remaining segments lexically.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path: %w", err)
	}
	return canonicalize(filepath.Clean(abs))
}

func canonicalize(abs string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	parent := filepath.Dir(abs)
	if parent == abs {
		// Reached the filesystem root without finding an existing ancestor.
		return abs, nil
	}
	resolvedParent, err := canonicalize(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(abs)), nil
}

// isWithinRoot reports whether path equals root or is a descendant of it.
// Both arguments must already be canonical.
func isWithinRoot(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}

// ExpandPath expands a path that starts with "~/" to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
