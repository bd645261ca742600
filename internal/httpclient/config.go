package httpclient

import (
	"context"
	"net/http"
	"time"
)

// HTTPClientConfig configures the shared outbound transport.
type HTTPClientConfig struct {
	Timeout             time.Duration
	UserAgent           string
	MaxContentSize      int64 // bytes, 0 disables the cap
	EnableHTTP2         bool
	InsecureSkipVerify  bool
	FollowRedirects     bool
	MaxRedirects        int
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	CustomHeaders       map[string]string
	Retry               RetryHandlerConfig
}

// DefaultHTTPClientConfig returns the transport defaults.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             10 * time.Second,
		FollowRedirects:     true,
		MaxRedirects:        10,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		CustomHeaders:       map[string]string{},
		Retry:               DefaultRetryHandlerConfig(),
	}
}

// HTTPRequest is a request description that can be replayed on retry.
type HTTPRequest struct {
	Context context.Context
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse is a fully read response.
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *HTTPResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
