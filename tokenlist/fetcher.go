package tokenlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/config"
	"github.com/status-im/wallet-token-lists/httpclient"
	"github.com/status-im/wallet-token-lists/logging"
	"github.com/status-im/wallet-token-lists/metrics"
)

//go:generate mockgen -destination=mocks/fetcher.go . Fetcher

// ErrUnexpectedStatus is returned when the source answers with neither 200 nor 304
var ErrUnexpectedStatus = errors.New("unexpected status")

// FetchResult is the outcome of a conditional fetch
type FetchResult struct {
	// NotModified is set when the source confirmed the validation token
	NotModified bool
	// Document is the decoded body of a 200 response
	Document *Document
	// ETag is the validation token of a 200 response, empty if none was sent
	ETag string
}

// Fetcher retrieves the remote token list
type Fetcher interface {
	// Fetch performs a GET request, conditional on etag when it is not empty
	Fetch(ctx context.Context, etag string) (*FetchResult, error)
}

// HTTPFetcher implements Fetcher over HTTP
type HTTPFetcher struct {
	url        string
	httpClient *httpclient.HTTPClientWithRetries
	logger     *zap.Logger
}

// NewHTTPFetcher creates a fetcher for cfg.URL with retries and outbound rate limiting
func NewHTTPFetcher(cfg config.TokenListFetcherConfig, metricsWriter *metrics.MetricsWriter, logger *zap.Logger) *HTTPFetcher {
	retryOpts := httpclient.RetryOptions{
		MaxRetries:        cfg.MaxRetries,
		BaseBackoff:       cfg.BaseBackoff,
		ConnectionTimeout: cfg.ConnectionTimeout,
		RequestTimeout:    cfg.RequestTimeout,
	}

	var handler httpclient.IHttpStatusHandler
	if metricsWriter != nil {
		handler = metricsWriter
	}

	logger = logging.OrNop(logger)
	return &HTTPFetcher{
		url: cfg.URL,
		httpClient: httpclient.NewHTTPClientWithRetries(
			retryOpts,
			handler,
			httpclient.NewRateLimiter(cfg.RateLimitPerMinute),
			logger,
		),
		logger: logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, etag string) (*FetchResult, error) {
	req, err := httpclient.NewRequestBuilder(f.url).WithIfNoneMatch(etag).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, body, duration, err := f.httpClient.ExecuteRequest(req)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return nil, fmt.Errorf("%w %d from %s: %v", ErrUnexpectedStatus, statusErr.StatusCode, f.url, err)
		}
		return nil, fmt.Errorf("failed to fetch token list: %w", err)
	}

	if resp.StatusCode == http.StatusNotModified {
		f.logger.Debug("Token list not modified", zap.String("etag", etag), zap.Duration("duration", duration))
		return &FetchResult{NotModified: true}, nil
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse token list: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("invalid token list: %w", err)
	}

	f.logger.Debug("Token list fetched",
		zap.Int("tokens", len(doc.Tokens)),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", duration),
	)

	return &FetchResult{
		Document: &doc,
		ETag:     resp.Header.Get("ETag"),
	}, nil
}
