package source

import "fmt"

// NotFoundError reports a document that does not exist at its resolved
// location. It is a structured per-request failure, not a protocol error.
type NotFoundError struct {
	Path string
	Kind Kind
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document not found (%s source): %s", e.Kind, e.Path)
}

// NetworkError reports an HTTP transport or status failure. Readers degrade
// to serving stale cached content when possible; the error propagates only
// when there is no cache entry to fall back on.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request failed for %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request failed for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
