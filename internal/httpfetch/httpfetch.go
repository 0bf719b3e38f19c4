// Package httpfetch fetches byte ranges over HTTP with retries.
//
// Retries live here, beneath the transfer engines, which never retry a
// part themselves.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 4

	// DefaultInitialInterval is the first retry delay
	DefaultInitialInterval = 200 * time.Millisecond

	// DefaultMaxInterval caps the retry delay
	DefaultMaxInterval = 5 * time.Second
)

// StatusError is returned for unexpected HTTP responses.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "unexpected HTTP status " + e.Status
}

// Fetcher performs GET requests, retrying transient failures with
// exponential backoff.
type Fetcher struct {
	client          *http.Client
	logger          *slog.Logger
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client. Per-request timeouts belong on this client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMaxRetries sets the retry count. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = uint64(n)
		}
	}
}

// WithBackoff sets the initial and maximum retry delay.
func WithBackoff(initial, maxInterval time.Duration) Option {
	return func(f *Fetcher) {
		f.initialInterval = initial
		f.maxInterval = maxInterval
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:          http.DefaultClient,
		logger:          slog.New(slog.DiscardHandler),
		maxRetries:      DefaultMaxRetries,
		initialInterval: DefaultInitialInterval,
		maxInterval:     DefaultMaxInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs url with headers and returns the body.
// A Range header, when present, must be answered with 206 Partial Content,
// and at most one byte beyond the requested span is read.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	var body []byte
	operation := func() error {
		data, err := f.fetchOnce(ctx, url, headers)
		if err != nil {
			return err
		}
		body = data
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.initialInterval
	eb.MaxInterval = f.maxInterval
	eb.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, f.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		f.logger.Debug("retrying fetch", "range", headers.Get("Range"), "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	want := http.StatusOK
	if headers.Get("Range") != "" {
		want = http.StatusPartialContent
	}
	if resp.StatusCode != want {
		_, _ = io.Copy(io.Discard, resp.Body)
		statusErr := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		if retryable(resp.StatusCode) {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	// one byte past the requested span is enough for the caller to see a
	// length mismatch without buffering an oversized body
	var body io.Reader = resp.Body
	if n, ok := rangeLength(headers.Get("Range")); ok {
		body = io.LimitReader(resp.Body, n+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// rangeLength returns the byte count of a single "bytes=start-end" range.
func rangeLength(header string) (int64, bool) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, false
	}
	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, false
	}
	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, false
	}
	end, err := strconv.ParseInt(last, 10, 64)
	if err != nil || end < start {
		return 0, false
	}
	return end - start + 1, true
}

func retryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}
