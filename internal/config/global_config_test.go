package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, DefaultUserAgent, cfg.MonitorConfig.UserAgent)
	assert.Equal(t, DefaultHTTPTimeoutSeconds, cfg.MonitorConfig.HTTPTimeoutSeconds)
	assert.Equal(t, DefaultSubjectTemplate, cfg.TemplateConfig.SubjectTemplate)
	assert.Equal(t, EmailModeSendCloud, cfg.EmailConfig.Mode)
	assert.False(t, cfg.EmailConfig.IsConfigured())
	assert.False(t, cfg.ClassifierConfig.IsConfigured())
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadGlobalConfig(filepath.Join(t.TempDir(), "missing.yaml"), zerolog.Nop())

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadGlobalConfig_JSONFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	configData := `{
		"log_config": {"log_level": "debug"},
		"monitor_config": {"user_agent": "test-agent", "http_timeout_seconds": 3},
		"email_config": {"mode": "smtp", "smtp_host": "mail.example.com", "smtp_account": "bot@example.com"}
	}`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0o644))

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	assert.Equal(t, "test-agent", cfg.MonitorConfig.UserAgent)
	assert.Equal(t, 3, cfg.MonitorConfig.HTTPTimeoutSeconds)
	assert.Equal(t, EmailModeSMTP, cfg.EmailConfig.Mode)
	// untouched sections keep their defaults
	assert.Equal(t, DefaultStorageSnapshotDir, cfg.StorageConfig.SnapshotDir)
}

func TestLoadGlobalConfig_YAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	configData := `
classifier_config:
  model: gpt-4o-mini
  api_key: from-file
storage_config:
  snapshot_dir: /tmp/snaps
template_config:
  subject_template: "changed: {{url}}"
`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0o644))

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.ClassifierConfig.Model)
	assert.True(t, cfg.ClassifierConfig.IsConfigured())
	assert.Equal(t, "/tmp/snaps", cfg.StorageConfig.SnapshotDir)
	assert.Equal(t, "changed: {{url}}", cfg.TemplateConfig.SubjectTemplate)
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configFile, []byte("log_config: [unterminated"), 0o644))

	_, err := LoadGlobalConfig(configFile, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal YAML")
}

func TestLoadGlobalConfig_EnvOverrides(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("classifier_config:\n  api_key: from-file\n"), 0o644))

	t.Setenv(EnvClassifierAPIKey, "from-env")
	t.Setenv(EnvClassifierModel, "env-model")
	t.Setenv(EnvSendCloudAPIKey, "sc-key")

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ClassifierConfig.APIKey)
	assert.Equal(t, "env-model", cfg.ClassifierConfig.Model)
	assert.Equal(t, "sc-key", cfg.EmailConfig.APIKey)
}

func TestGetConfigPath_EnvVariable(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(configFile, []byte("{}"), 0o644))
	t.Setenv(EnvConfigPath, configFile)

	assert.Equal(t, configFile, GetConfigPath(""))
	assert.Equal(t, "explicit.yaml", GetConfigPath("explicit.yaml"))
}

func TestEmailConfig_IsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  EmailConfig
		want bool
	}{
		{name: "smtp complete", cfg: EmailConfig{Mode: "smtp", SMTPHost: "h", SMTPAccount: "a", SMTPPassword: "p"}, want: true},
		{name: "smtp missing password", cfg: EmailConfig{Mode: "smtp", SMTPHost: "h", SMTPAccount: "a"}, want: false},
		{name: "sendcloud complete", cfg: EmailConfig{Mode: "sendcloud", APIUser: "u", APIKey: "k"}, want: true},
		{name: "sendcloud missing key", cfg: EmailConfig{Mode: "sendcloud", APIUser: "u"}, want: false},
		{name: "unknown mode", cfg: EmailConfig{Mode: "pigeon", APIUser: "u", APIKey: "k"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.IsConfigured())
		})
	}
}
