// Package source opens data files given either as local paths or as
// HTTP(S) URLs, such as TLE sets published by CelesTrak.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultTimeout bounds a download.
const DefaultTimeout = 20 * time.Second

// maxErrorBody caps the response text quoted in errors.
const maxErrorBody = 512

// IsURL reports whether s names an HTTP(S) resource.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ReadAll returns the contents of a local file or URL.
func ReadAll(ctx context.Context, pathOrURL string) ([]byte, error) {
	if !IsURL(pathOrURL) {
		//nolint:gosec // G304: File path comes from configuration.
		return os.ReadFile(pathOrURL)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pathOrURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("fetch %s: HTTP %d: %s", pathOrURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(resp.Body)
}
