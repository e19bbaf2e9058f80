package httpclient

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/status-im/wallet-token-lists/logging"
	"github.com/status-im/wallet-token-lists/metrics"
)

//go:generate mockgen -destination=mocks/status_handler.go . IHttpStatusHandler

// IHttpStatusHandler is an interface for handling HTTP request statuses
type IHttpStatusHandler interface {
	// OnRequest handles a request with its status result
	OnRequest(status string)
	// OnRetry handles retry events
	OnRetry()
}

// StatusError is returned for a response status that is neither 200 nor 304
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// RetryOptions configures retry behavior for HTTP requests
type RetryOptions struct {
	MaxRetries        int
	BaseBackoff       time.Duration
	ConnectionTimeout time.Duration // Timeout for establishing connection
	RequestTimeout    time.Duration // Total request timeout including reading response
}

// DefaultRetryOptions returns default retry options
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:        3,
		BaseBackoff:       1000 * time.Millisecond,
		ConnectionTimeout: 10 * time.Second,
		RequestTimeout:    30 * time.Second,
	}
}

// HTTPClientWithRetries wraps an HTTP Client with retry capabilities
type HTTPClientWithRetries struct {
	Client        *http.Client
	Opts          RetryOptions
	StatusHandler IHttpStatusHandler
	Limiter       *rate.Limiter
	logger        *zap.Logger
}

// NewHTTPClientWithRetries creates a new HTTP Client with retry capabilities.
// handler and limiter are optional.
func NewHTTPClientWithRetries(opts RetryOptions, handler IHttpStatusHandler, limiter *rate.Limiter, logger *zap.Logger) *HTTPClientWithRetries {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}

	client := &http.Client{
		Timeout: opts.RequestTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: opts.ConnectionTimeout,
			}).DialContext,
		},
	}

	return &HTTPClientWithRetries{
		Client:        client,
		Opts:          opts,
		StatusHandler: handler,
		Limiter:       limiter,
		logger:        logging.OrNop(logger),
	}
}

// NewRateLimiter converts a requests-per-minute budget into a limiter.
// A non-positive budget means no limiter.
func NewRateLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	burst := requestsPerMinute / 60
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
}

// ExecuteRequest executes an HTTP request with retry logic.
// A 304 response is returned as a success with an empty body and is never retried.
func (c *HTTPClientWithRetries) ExecuteRequest(req *http.Request) (*http.Response, []byte, time.Duration, error) {
	var lastErr error
	ctx := req.Context()

	for attempt := 0; attempt < c.Opts.MaxRetries; attempt++ {
		if attempt > 0 {
			c.onRetry()

			backoffDuration := calculateBackoffWithJitter(c.Opts.BaseBackoff, attempt)
			c.logger.Warn("retrying request",
				zap.String("url", req.URL.Redacted()),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", c.Opts.MaxRetries-1),
				zap.Duration("backoff", backoffDuration),
				zap.Error(lastErr),
			)

			select {
			case <-ctx.Done():
				return nil, nil, 0, fmt.Errorf("request cancelled during backoff: %w", ctx.Err())
			case <-time.After(backoffDuration):
			}
		}

		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				c.onRequest(metrics.StatusError)
				return nil, nil, 0, fmt.Errorf("rate limiter wait failed: %w", err)
			}
		}

		requestStart := time.Now()
		resp, err := c.Client.Do(req)
		requestDuration := time.Since(requestStart)

		if err != nil {
			lastErr = fmt.Errorf("request failed after %.2fs: %w", requestDuration.Seconds(), err)
			c.onRequest(metrics.StatusError)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		responseBody, err := processResponse(resp)
		resp.Body.Close()
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && isRetryableError(statusErr.StatusCode) {
				lastErr = err
				if statusErr.StatusCode == http.StatusTooManyRequests {
					c.onRequest(metrics.StatusRateLimited)
				} else {
					c.onRequest(metrics.StatusError)
				}
				continue
			}

			c.onRequest(metrics.StatusError)
			return resp, nil, requestDuration, err
		}

		if resp.StatusCode == http.StatusNotModified {
			c.onRequest(metrics.StatusNotModified)
		} else {
			c.onRequest(metrics.StatusSuccess)
		}
		return resp, responseBody, requestDuration, nil
	}

	return nil, nil, 0, fmt.Errorf("all %d attempts failed, last error: %w", c.Opts.MaxRetries, lastErr)
}

func (c *HTTPClientWithRetries) onRequest(status string) {
	if c.StatusHandler != nil {
		c.StatusHandler.OnRequest(status)
	}
}

func (c *HTTPClientWithRetries) onRetry() {
	if c.StatusHandler != nil {
		c.StatusHandler.OnRetry()
	}
}

// calculateBackoffWithJitter calculates backoff duration with jitter for retries
func calculateBackoffWithJitter(baseBackoff time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseBackoff <= 0 {
		return baseBackoff
	}

	multiplier := uint(1) << uint(attempt-1)
	backoff := time.Duration(float64(baseBackoff) * float64(multiplier))
	if half := int64(backoff / 2); half > 0 {
		backoff += time.Duration(rand.Int63n(half))
	}
	return backoff
}

// processResponse reads the body of a 200 response. 304 yields an empty body.
func processResponse(resp *http.Response) ([]byte, error) {
	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error reading response: %w", err)
		}
		return body, nil
	case http.StatusNotModified:
		return nil, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

// isRetryableError determines if a given HTTP status code should trigger a retry
func isRetryableError(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}
