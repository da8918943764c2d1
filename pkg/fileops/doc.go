// Package fileops provides secure filesystem primitives for bounded file access.
//
// The package centers on the PathValidator, which canonicalizes candidate paths
// (resolving symlinks and ".." segments) and verifies that every result lies
// under one of a fixed set of allowed root directories. Any path handed to a
// caller by this module has passed through that check; there is no way to
// obtain an out-of-bound path from a validator.
//
// # Validation pattern
//
//	validator, err := fileops.NewPathValidator([]string{docroot})
//	if err != nil {
//	    return err
//	}
//	resolved, err := validator.ValidatePath("guides/setup.md", categoryDir)
//	if err != nil {
//	    var secErr *fileops.SecurityError
//	    if errors.As(err, &secErr) {
//	        // boundary violation - always fatal for the request
//	    }
//	    return err
//	}
//	content, _ := os.ReadFile(resolved)
//
// Validation failures are never downgraded to warnings: a *SecurityError means
// the request must be refused.
//
// # Filename sanitization
//
// SanitizeFilename produces a filesystem-safe name from untrusted input by
// replacing path separators, wildcards and shell-hostile characters with
// underscores. Inputs that sanitize to nothing become the literal "unnamed".
package fileops
