package source

import (
	"context"
	"io"
	"net/http"
	"time"

	"mdserve/internal/logging"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "mdserve/1.0"
)

// Response carries the body and headers of a successful HTTP fetch.
type Response struct {
	Content string
	Headers http.Header
}

// HTTPClient fetches remote documents, with conditional-request support for
// the content cache.
type HTTPClient struct {
	client  *http.Client
	headers map[string]string
}

// NewHTTPClient creates a client with the given timeout (defaultTimeout when
// zero) and base headers applied to every request.
func NewHTTPClient(timeout time.Duration, headers map[string]string) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := map[string]string{"User-Agent": userAgent}
	for k, v := range headers {
		base[k] = v
	}
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		headers: base,
	}
}

// Get fetches url with an unconditional GET. Extra headers (typically auth)
// are applied on top of the client's base headers. Any transport failure or
// non-2xx status is returned as a *NetworkError.
func (c *HTTPClient) Get(ctx context.Context, url string, extra map[string]string) (*Response, error) {
	logging.Debug("HTTP GET", "url", url)
	return c.do(ctx, http.MethodGet, url, extra)
}

// GetConditional fetches url with If-Modified-Since / If-None-Match headers
// built from a cached entry's validators. On 304 Not Modified it returns
// notModified == true together with the response headers (which may carry
// refreshed caching directives) and no content.
func (c *HTTPClient) GetConditional(ctx context.Context, url string, extra map[string]string, lastModified, etag string) (resp *Response, notModified bool, err error) {
	logging.Debug("HTTP conditional GET", "url", url, "etag", etag, "lastModified", lastModified)

	req, err := c.newRequest(ctx, http.MethodGet, url, extra)
	if err != nil {
		return nil, false, err
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, false, &NetworkError{URL: url, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotModified {
		logging.Debug("HTTP 304 Not Modified", "url", url)
		return &Response{Headers: httpResp.Header}, true, nil
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, false, &NetworkError{URL: url, StatusCode: httpResp.StatusCode}
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, false, &NetworkError{URL: url, Err: err}
	}
	return &Response{Content: string(body), Headers: httpResp.Header}, false, nil
}

// Exists checks whether url answers a HEAD request with a 2xx status.
func (c *HTTPClient) Exists(ctx context.Context, url string, extra map[string]string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodHead, url, extra)
	if err != nil {
		return false, err
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		return false, &NetworkError{URL: url, Err: err}
	}
	defer httpResp.Body.Close()

	return httpResp.StatusCode >= 200 && httpResp.StatusCode < 300, nil
}

func (c *HTTPClient) do(ctx context.Context, method, url string, extra map[string]string) (*Response, error) {
	req, err := c.newRequest(ctx, method, url, extra)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &NetworkError{URL: url, StatusCode: httpResp.StatusCode}
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return &Response{Content: string(body), Headers: httpResp.Header}, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, url string, extra map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	return req, nil
}
