package source

import (
	"strings"
	"testing"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		name         string
		uri          string
		wantKind     Kind
		wantBasePath string
		expectError  bool
		errorText    string
	}{
		{
			name:         "http url",
			uri:          "http://example.com/docs",
			wantKind:     KindHTTP,
			wantBasePath: "http://example.com/docs",
		},
		{
			name:         "https url",
			uri:          "https://example.com/docs",
			wantKind:     KindHTTP,
			wantBasePath: "https://example.com/docs",
		},
		{
			name:         "file url absolute",
			uri:          "file:///var/docs",
			wantKind:     KindLocal,
			wantBasePath: "/var/docs",
		},
		{
			name:         "file url relative",
			uri:          "file://docs/guide",
			wantKind:     KindLocal,
			wantBasePath: "docs/guide",
		},
		{
			name:         "bare path defaults to local",
			uri:          "docs/guide.md",
			wantKind:     KindLocal,
			wantBasePath: "docs/guide.md",
		},
		{
			name:        "unsupported scheme",
			uri:         "ftp://example.com/docs",
			expectError: true,
			errorText:   "unsupported URL scheme: ftp://",
		},
		{
			name:        "another unsupported scheme",
			uri:         "s3://bucket/key",
			expectError: true,
			errorText:   "unsupported URL scheme: s3://",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ParseSource(tt.uri)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorText) {
					t.Errorf("Expected error containing %q, got: %v", tt.errorText, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if src.Kind != tt.wantKind {
				t.Errorf("Expected kind %q, got %q", tt.wantKind, src.Kind)
			}
			if src.BasePath != tt.wantBasePath {
				t.Errorf("Expected base path %q, got %q", tt.wantBasePath, src.BasePath)
			}
			if !src.CacheEnabled {
				t.Error("Expected caching enabled by default")
			}
			if src.CacheTTL != DefaultCacheTTL {
				t.Errorf("Expected default TTL %v, got %v", DefaultCacheTTL, src.CacheTTL)
			}
		})
	}
}

func TestWithAuthHeaders(t *testing.T) {
	src, err := ParseSource("https://example.com/docs")
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}

	headers := map[string]string{"Authorization": "Bearer tok"}
	withAuth := src.WithAuthHeaders(headers)

	if withAuth.AuthHeaders["Authorization"] != "Bearer tok" {
		t.Error("Expected auth header to be carried")
	}
	if src.AuthHeaders != nil {
		t.Error("Original source must stay unmodified")
	}

	// The source holds a copy, not the caller's map.
	headers["Authorization"] = "Bearer other"
	if withAuth.AuthHeaders["Authorization"] != "Bearer tok" {
		t.Error("Source must not alias the caller's header map")
	}

	if empty := src.WithAuthHeaders(nil); empty.AuthHeaders != nil {
		t.Error("Expected nil headers to stay nil")
	}
}
