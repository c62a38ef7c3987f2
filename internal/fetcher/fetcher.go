// Package fetcher downloads data from HTTP sources with retry and rate limiting.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadRaw fetches the URL in a single attempt, bypassing retry and
	// rate limiting, and returns the full response for diagnostics.
	DownloadRaw(ctx context.Context, url string) (*RawResponse, error)
}

// RawResponse captures a response for diagnostic logging.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// BodyExcerpt returns at most n bytes of the body for log output.
func (r *RawResponse) BodyExcerpt(n int) string {
	if len(r.Body) <= n {
		return string(r.Body)
	}
	return string(r.Body[:n])
}
