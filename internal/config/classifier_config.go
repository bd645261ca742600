package config

import (
	"strings"
	"time"
)

// ClassifierConfig holds the settings of the LLM change classifier.
// An empty APIKey or Model disables classification.
type ClassifierConfig struct {
	Model             string `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL           string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey            string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	TimeoutSeconds    int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	RequestsPerMinute int    `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty" validate:"omitempty,min=1"`
	// MaxDiffChars truncates very large diffs before they are sent.
	MaxDiffChars int `json:"max_diff_chars,omitempty" yaml:"max_diff_chars,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultClassifierConfig creates default classifier configuration
func NewDefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		BaseURL:           DefaultClassifierBaseURL,
		TimeoutSeconds:    DefaultClassifierTimeoutSeconds,
		RequestsPerMinute: DefaultClassifierRequestsPerMinute,
		MaxDiffChars:      60000,
	}
}

// IsConfigured reports whether enough settings are present to call the endpoint.
func (c ClassifierConfig) IsConfigured() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.Model) != ""
}

// Timeout returns the per-call timeout.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
