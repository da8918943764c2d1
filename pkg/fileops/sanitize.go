package fileops

import (
	"regexp"
	"strings"
)

var (
	// dangerousChars covers path separators, drive/stream markers, shell
	// redirection characters, quotes and glob wildcards.
	dangerousChars = regexp.MustCompile("[/\\\\:*?\"'<>|]")

	traversalDots       = regexp.MustCompile(`\.\.+`)
	repeatedUnderscores = regexp.MustCompile(`_+`)
)

// SanitizeFilename produces a filesystem-safe name from untrusted input.
// Dangerous characters are replaced with underscores, traversal dot runs are
// stripped, and runs of underscores are collapsed. Inputs that reduce to
// nothing (empty, whitespace, ".", "..") come back as the literal "unnamed"
// so callers always receive a usable name.
func SanitizeFilename(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." || trimmed == ".." {
		return "unnamed"
	}

	sanitized := dangerousChars.ReplaceAllString(name, "_")
	sanitized = traversalDots.ReplaceAllString(sanitized, "")
	sanitized = strings.Trim(sanitized, ". ")
	sanitized = repeatedUnderscores.ReplaceAllString(sanitized, "_")
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		return "unnamed"
	}
	return sanitized
}
