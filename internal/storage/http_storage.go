package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultFetchAttempts = 3
	defaultMaxImageBytes = 20 << 20
)

// HTTPImageFetcher downloads images over HTTP(S), retrying transient failures.
type HTTPImageFetcher struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
	maxBytes int64
}

// HTTPOption customizes an HTTPImageFetcher.
type HTTPOption func(*HTTPImageFetcher)

// WithBackoff sets the base delay between attempts. Attempt n waits n*d.
func WithBackoff(d time.Duration) HTTPOption {
	return func(h *HTTPImageFetcher) { h.backoff = d }
}

// WithMaxBytes bounds the downloaded body size.
func WithMaxBytes(n int64) HTTPOption {
	return func(h *HTTPImageFetcher) { h.maxBytes = n }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPImageFetcher) { h.client = c }
}

// NewHTTPImageFetcher creates an HTTP image fetcher with a per-request timeout.
func NewHTTPImageFetcher(timeout time.Duration, opts ...HTTPOption) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	h := &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		attempts: defaultFetchAttempts,
		backoff:  time.Second,
		maxBytes: defaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FetchImage downloads and decodes imageURL. 4xx responses are not retried and
// are reported as ErrInvalidImagePath.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (Frame, error) {
	var lastErr error

	for attempt := 0; attempt < h.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Frame{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		frame, retry, err := h.fetchOnce(ctx, imageURL)
		if err == nil {
			return frame, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, fmt.Errorf("failed to fetch image after %d attempts: %w", h.attempts, lastErr)
}

func (h *HTTPImageFetcher) fetchOnce(ctx context.Context, imageURL string) (Frame, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Frame{}, false, fmt.Errorf("%w: invalid URL: %w", ErrInvalidImagePath, err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, */*")
	req.Header.Set("User-Agent", "Skin-Advisor/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return Frame{}, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Frame{}, false, fmt.Errorf("%w: client error: status code %d", ErrInvalidImagePath, resp.StatusCode)
	case resp.StatusCode >= 500:
		return Frame{}, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Frame{}, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	frame, err := Decode(io.LimitReader(resp.Body, h.maxBytes), imageURL)
	return frame, false, err
}
