package fileops

import "fmt"

// SecurityError reports a path that violates the configured access boundaries.
// It is always fatal for the request that triggered it and must never be
// suppressed or downgraded to a warning.
type SecurityError struct {
	// Path is the offending path as seen after resolution, when resolution
	// succeeded, or the raw input otherwise.
	Path string

	// Err holds the underlying cause when resolution itself failed.
	Err error
}

func (e *SecurityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("path outside allowed boundaries: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("path outside allowed boundaries: %s", e.Path)
}

func (e *SecurityError) Unwrap() error {
	return e.Err
}
