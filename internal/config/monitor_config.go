package config

import "time"

// MonitorConfig configures how resources are fetched.
type MonitorConfig struct {
	UserAgent          string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	HTTPTimeoutSeconds int    `json:"http_timeout_seconds,omitempty" yaml:"http_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	MaxContentSize     int64  `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"omitempty,min=1"` // bytes
	MaxRetries         int    `json:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`
	RetryBaseDelayMs   int    `json:"retry_base_delay_ms,omitempty" yaml:"retry_base_delay_ms,omitempty" validate:"omitempty,min=1"`
	EnableHTTP2        bool   `json:"enable_http2" yaml:"enable_http2"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		UserAgent:          DefaultUserAgent,
		HTTPTimeoutSeconds: DefaultHTTPTimeoutSeconds,
		MaxContentSize:     DefaultMaxContentSize,
		MaxRetries:         DefaultMaxRetries,
		RetryBaseDelayMs:   DefaultRetryBaseDelayMs,
		EnableHTTP2:        true,
	}
}

// HTTPTimeout returns the per-request timeout.
func (c MonitorConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}
