package httpclient

import (
	"time"

	"github.com/aleister1102/changewatch/internal/config"
	"github.com/rs/zerolog"
)

// HTTPClientBuilder builds HTTP clients with fluent interface
type HTTPClientBuilder struct {
	config HTTPClientConfig
	logger zerolog.Logger
}

// NewHTTPClientBuilder creates a new HTTPClientBuilder with default configuration
func NewHTTPClientBuilder(logger zerolog.Logger) *HTTPClientBuilder {
	return &HTTPClientBuilder{
		config: DefaultHTTPClientConfig(),
		logger: logger,
	}
}

// FromMonitorConfig applies the fetch section of the application config
func (b *HTTPClientBuilder) FromMonitorConfig(cfg config.MonitorConfig) *HTTPClientBuilder {
	if cfg.HTTPTimeoutSeconds > 0 {
		b.config.Timeout = cfg.HTTPTimeout()
	}
	b.config.UserAgent = cfg.UserAgent
	b.config.MaxContentSize = cfg.MaxContentSize
	b.config.EnableHTTP2 = cfg.EnableHTTP2
	b.config.InsecureSkipVerify = cfg.InsecureSkipVerify
	b.config.Retry.MaxRetries = cfg.MaxRetries
	if cfg.RetryBaseDelayMs > 0 {
		b.config.Retry.BaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
	}
	return b
}

// WithTimeout sets the request timeout
func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	b.config.Timeout = timeout
	return b
}

// WithUserAgent sets the User-Agent header
func (b *HTTPClientBuilder) WithUserAgent(userAgent string) *HTTPClientBuilder {
	b.config.UserAgent = userAgent
	return b
}

// WithMaxContentSize sets the maximum content size in bytes (0 for no limit)
func (b *HTTPClientBuilder) WithMaxContentSize(size int64) *HTTPClientBuilder {
	b.config.MaxContentSize = size
	return b
}

// WithFollowRedirects sets whether to follow redirects
func (b *HTTPClientBuilder) WithFollowRedirects(follow bool) *HTTPClientBuilder {
	b.config.FollowRedirects = follow
	return b
}

// WithHeader adds a header sent with every request
func (b *HTTPClientBuilder) WithHeader(key, value string) *HTTPClientBuilder {
	b.config.CustomHeaders[key] = value
	return b
}

// WithHTTP2 enables or disables HTTP/2 support
func (b *HTTPClientBuilder) WithHTTP2(enabled bool) *HTTPClientBuilder {
	b.config.EnableHTTP2 = enabled
	return b
}

// WithRetry replaces the retry policy; MaxRetries 0 disables retries
func (b *HTTPClientBuilder) WithRetry(retry RetryHandlerConfig) *HTTPClientBuilder {
	b.config.Retry = retry
	return b
}

// Build creates and returns a new HTTPClient
func (b *HTTPClientBuilder) Build() (*HTTPClient, error) {
	return NewHTTPClient(b.config, b.logger)
}
