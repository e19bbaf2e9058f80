package httpclient

import (
	"context"
	"net/http"
)

const defaultUserAgent = "wallet-token-lists/1.0"

// RequestBuilder implements the Builder pattern for GET requests against a JSON source
type RequestBuilder struct {
	url       string
	userAgent string
	headers   map[string]string
}

func NewRequestBuilder(url string) *RequestBuilder {
	rb := &RequestBuilder{
		url:       url,
		userAgent: defaultUserAgent,
		headers:   make(map[string]string),
	}

	rb.headers["Accept"] = "application/json"

	return rb
}

// WithHeader adds a custom HTTP header
func (rb *RequestBuilder) WithHeader(name, value string) *RequestBuilder {
	rb.headers[name] = value
	return rb
}

// WithIfNoneMatch makes the request conditional on the given validation token
func (rb *RequestBuilder) WithIfNoneMatch(etag string) *RequestBuilder {
	if etag != "" {
		rb.headers["If-None-Match"] = etag
	}
	return rb
}

// WithUserAgent sets the User-Agent header
func (rb *RequestBuilder) WithUserAgent(userAgent string) *RequestBuilder {
	rb.userAgent = userAgent
	return rb
}

// Build creates an http.Request object
func (rb *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rb.url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", rb.userAgent)

	for key, value := range rb.headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
