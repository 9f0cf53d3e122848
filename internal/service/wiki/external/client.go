package external

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"wikidash/internal/retry"
)

const (
	// DefaultTimeout is the default HTTP timeout for a single upstream call
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent identifies the client to Wikimedia, which requires one
	DefaultUserAgent = "WikiDash/1.0"
	// maxBodyBytes bounds how much of an upstream response is read
	maxBodyBytes = 32 << 20
)

var (
	// ErrPageMissing means the wiki has no page with the requested title
	ErrPageMissing = errors.New("page missing")
	// ErrMalformedResponse means the upstream body did not have the expected shape
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream error (status %d) for %s: %s", e.StatusCode, e.URL, e.Body)
}

// Options configures the shared HTTP behaviour of every client
type Options struct {
	HTTPClient *http.Client  // optional, built from Timeout when nil
	Timeout    time.Duration // per call
	UserAgent  string
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) userAgent() string {
	if o.UserAgent == "" {
		return DefaultUserAgent
	}
	return o.UserAgent
}

// getter performs GET requests and classifies failures for the retry policy:
// network errors, 5xx and 429 are transient, everything else is permanent.
type getter struct {
	httpClient *http.Client
	userAgent  string
}

func newGetter(opts Options) getter {
	return getter{httpClient: opts.client(), userAgent: opts.userAgent()}
}

func (g getter) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }() // Error ignored: response consumed

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, retry.Transient(statusErr)
		}
		return nil, statusErr
	}

	return body, nil
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
