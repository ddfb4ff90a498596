// Package transport provides HTTP round trippers shared by the completion
// boundary clients.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// RetryAfterTransport retries requests rejected with 429 after the wait the
// server asks for in the Retry-After header. This is boundary-level backoff:
// a completion that fails for any other reason is still reported once, not
// retried.
type RetryAfterTransport struct {
	base http.RoundTripper
}

func WithRetryAfter(base http.RoundTripper) *RetryAfterTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryAfterTransport{base: base}
}

func (t *RetryAfterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Buffer the body so it can be replayed on retry
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if err := req.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return resp, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		if wait <= 0 {
			// Nothing to go on; surface the 429 as-is
			return resp, nil
		}

		if err := resp.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close response body: %w", err)
		}

		log.Printf("Rate limited, waiting %s", wait)
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}

// parseRetryAfter accepts both forms the header allows: delay seconds and an
// HTTP date.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		return time.Until(at)
	}
	return 0
}
