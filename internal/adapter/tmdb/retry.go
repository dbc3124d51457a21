package tmdb

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"
)

// HTTPDoer executes HTTP requests. *http.Client and *RetryClient satisfy it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient retries transient failures with exponential backoff and full
// jitter. Client errors and context cancellation are never retried.
type RetryClient struct {
	client     HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
}

// RetryOption configures a RetryClient.
type RetryOption func(*RetryClient)

// WithBackoff overrides the default 500ms base and 10s cap.
func WithBackoff(base, limit time.Duration) RetryOption {
	return func(rc *RetryClient) {
		rc.baseDelay = base
		rc.maxDelay = limit
	}
}

// WithLogger logs each retried attempt to logger.
func WithLogger(logger *slog.Logger) RetryOption {
	return func(rc *RetryClient) { rc.logger = logger }
}

// NewRetryClient wraps client. maxRetries counts attempts after the first;
// zero or less means 3.
func NewRetryClient(client HTTPDoer, maxRetries int, opts ...RetryOption) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	rc := &RetryClient{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  500 * time.Millisecond,
		maxDelay:   10 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Do sends req, retrying on 429, 5xx gateway errors and network errors.
// The last response is returned as-is so the caller can read its status.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var lastErr error

	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if ctx.Err() != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, ctx.Err()
		}

		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("resetting request body: %w", err)
				}
				req.Body = body
			}

			delay := rc.delay(attempt)
			rc.logger.WarnContext(ctx, "retrying provider request",
				"attempt", attempt,
				"max_retries", rc.maxRetries,
				"method", req.Method,
				"path", req.URL.Path,
				"wait", delay,
				"error", lastErr,
			)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, ctx.Err()
			}
		}

		resp, err := rc.client.Do(req)
		if err != nil {
			lastErr = redactURL(err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) || attempt == rc.maxRetries {
			return resp, nil
		}

		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("server returned retryable status %d", resp.StatusCode)
	}

	return nil, lastErr
}

// delay is random(0, min(maxDelay, baseDelay*2^(attempt-1))), at least 10ms.
func (rc *RetryClient) delay(attempt int) time.Duration {
	exp := float64(rc.baseDelay) * math.Pow(2, float64(attempt-1))
	if exp > float64(rc.maxDelay) {
		exp = float64(rc.maxDelay)
	}
	jittered := time.Duration(rand.Float64() * exp)
	if jittered < 10*time.Millisecond {
		jittered = 10 * time.Millisecond
	}
	return jittered
}

// redactURL drops the query string from transport errors so credentials
// passed as parameters never reach logs.
func redactURL(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	u, parseErr := url.Parse(urlErr.URL)
	if parseErr != nil {
		return urlErr.Err
	}
	u.RawQuery = ""
	return &url.Error{Op: urlErr.Op, URL: u.String(), Err: urlErr.Err}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
