package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aleister1102/changewatch/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// maxConfigFileSize bounds how much of a config file is read.
const maxConfigFileSize = 10 * 1024 * 1024

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	APIConfig        APIConfig        `json:"api_config,omitempty" yaml:"api_config,omitempty"`
	ClassifierConfig ClassifierConfig `json:"classifier_config,omitempty" yaml:"classifier_config,omitempty"`
	EmailConfig      EmailConfig      `json:"email_config,omitempty" yaml:"email_config,omitempty"`
	LogConfig        LogConfig        `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	MonitorConfig    MonitorConfig    `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	StorageConfig    StorageConfig    `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	TemplateConfig   TemplateConfig   `json:"template_config,omitempty" yaml:"template_config,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		APIConfig:        NewDefaultAPIConfig(),
		ClassifierConfig: NewDefaultClassifierConfig(),
		EmailConfig:      NewDefaultEmailConfig(),
		LogConfig:        NewDefaultLogConfig(),
		MonitorConfig:    NewDefaultMonitorConfig(),
		StorageConfig:    NewDefaultStorageConfig(),
		TemplateConfig:   NewDefaultTemplateConfig(),
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// The file path is resolved with GetConfigPath; .yaml and .yml files are parsed
// as YAML, everything else as JSON. Secrets from the environment are applied last.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		logger.Info().Msg("No config file found, using defaults")
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	if !fileExists(filePath) {
		return nil, common.NewValidationError("config_file", filePath, "config file does not exist")
	}

	data, err := readConfigFile(filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	applyEnvOverrides(cfg)
	logger.Info().Str("path", filePath).Msg("Loaded configuration")
	return cfg, nil
}

func readConfigFile(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSize {
		return nil, common.NewError("config file '%s' is larger than %d bytes", filePath, maxConfigFileSize)
	}
	return os.ReadFile(filePath)
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

// applyEnvOverrides lets credentials live outside the config file.
func applyEnvOverrides(cfg *GlobalConfig) {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvClassifierAPIKey, &cfg.ClassifierConfig.APIKey},
		{EnvClassifierBaseURL, &cfg.ClassifierConfig.BaseURL},
		{EnvClassifierModel, &cfg.ClassifierConfig.Model},
		{EnvSMTPPassword, &cfg.EmailConfig.SMTPPassword},
		{EnvSendCloudAPIKey, &cfg.EmailConfig.APIKey},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.target = v
		}
	}
}
