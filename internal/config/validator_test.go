package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*GlobalConfig)
		wantField string
	}{
		{
			name:      "bad log level",
			mutate:    func(c *GlobalConfig) { c.LogConfig.LogLevel = "verbose" },
			wantField: "LogLevel",
		},
		{
			name:      "bad log format",
			mutate:    func(c *GlobalConfig) { c.LogConfig.LogFormat = "xml" },
			wantField: "LogFormat",
		},
		{
			name:      "bad email mode",
			mutate:    func(c *GlobalConfig) { c.EmailConfig.Mode = "fax" },
			wantField: "Mode",
		},
		{
			name:      "missing snapshot dir",
			mutate:    func(c *GlobalConfig) { c.StorageConfig.SnapshotDir = "" },
			wantField: "SnapshotDir",
		},
		{
			name:      "api enabled without address",
			mutate:    func(c *GlobalConfig) { c.APIConfig.ListenAddr = "" },
			wantField: "ListenAddr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultGlobalConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestValidateConfig_AcceptsUppercaseEnums(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.LogConfig.LogLevel = "DEBUG"
	cfg.EmailConfig.Mode = "SMTP"

	assert.NoError(t, ValidateConfig(cfg))
}
