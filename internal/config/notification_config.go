package config

import (
	"strings"
	"time"
)

// EmailConfig selects and configures the outbound mail transport.
type EmailConfig struct {
	Mode           string `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,emailmode"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`

	// SMTP mode
	SMTPHost     string `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty"`
	SMTPPort     int    `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty" validate:"omitempty,min=1,max=65535"`
	SMTPAccount  string `json:"smtp_account,omitempty" yaml:"smtp_account,omitempty"`
	SMTPPassword string `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`

	// SendCloud mode
	APIUser   string `json:"api_user,omitempty" yaml:"api_user,omitempty"`
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIURL    string `json:"api_url,omitempty" yaml:"api_url,omitempty" validate:"omitempty,url"`
	FromEmail string `json:"from_email,omitempty" yaml:"from_email,omitempty"`
	FromName  string `json:"from_name,omitempty" yaml:"from_name,omitempty"`
}

// NewDefaultEmailConfig creates default email configuration
func NewDefaultEmailConfig() EmailConfig {
	return EmailConfig{
		Mode:           DefaultEmailMode,
		TimeoutSeconds: DefaultEmailTimeoutSecond,
		SMTPPort:       DefaultSMTPPort,
		APIURL:         DefaultSendCloudEndpoint,
		FromEmail:      DefaultSendCloudFrom,
		FromName:       DefaultSendCloudFromName,
	}
}

// IsConfigured reports whether the selected mode has its credentials.
func (c EmailConfig) IsConfigured() bool {
	switch strings.ToLower(c.Mode) {
	case EmailModeSMTP:
		return c.SMTPHost != "" && c.SMTPAccount != "" && c.SMTPPassword != ""
	case EmailModeSendCloud:
		return c.APIUser != "" && c.APIKey != ""
	default:
		return false
	}
}

// Timeout returns the send timeout.
func (c EmailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TemplateConfig holds the email templates. See notifier for the placeholders.
type TemplateConfig struct {
	SubjectTemplate  string `json:"subject_template,omitempty" yaml:"subject_template,omitempty"`
	BodyTemplate     string `json:"body_template,omitempty" yaml:"body_template,omitempty"`
	AnalysisTemplate string `json:"ai_analysis_template,omitempty" yaml:"ai_analysis_template,omitempty"`
	TimeLayout       string `json:"time_layout,omitempty" yaml:"time_layout,omitempty"`
}

// NewDefaultTemplateConfig creates the default templates
func NewDefaultTemplateConfig() TemplateConfig {
	return TemplateConfig{
		SubjectTemplate:  DefaultSubjectTemplate,
		BodyTemplate:     DefaultBodyTemplate,
		AnalysisTemplate: DefaultAnalysisTemplate,
		TimeLayout:       DefaultChangeTimeLayout,
	}
}
