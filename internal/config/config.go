// Package config loads application configuration from the config file and
// GUT_* environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/gutworks/gutautomate/internal/source"
)

// Config is the application configuration for one run.
type Config struct {
	// ClickUp
	ClickUpToken  string `mapstructure:"clickup_token"`
	TeamID        string `mapstructure:"team_id"`
	DefaultListID string `mapstructure:"default_list_id"`

	// Anthropic
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	AnthropicModel  string `mapstructure:"anthropic_model"`

	// Engine
	Threshold float64 `mapstructure:"threshold"`
	BatchMode bool    `mapstructure:"batch_mode"`

	// Paths
	LedgerPath string `mapstructure:"ledger_path"`
	RulesPath  string `mapstructure:"rules_path"`
}

// Load reads configuration from path (or the default config file when
// path is empty), layered under GUT_* environment variables. A missing
// config file yields defaults; env vars and flags still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	configDir, err := source.ConfigDir()
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix("GUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("threshold", 0.85)
	v.SetDefault("batch_mode", false)
	v.SetDefault("ledger_path", filepath.Join(configDir, "data", "processed_meetings.json"))
	v.SetDefault("rules_path", filepath.Join(configDir, "rules.yaml"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config file found, fall through to env vars and defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields a pipeline run requires. The doctor command
// reports each missing piece instead of stopping at the first.
func (c *Config) Validate() error {
	var missing []string
	if c.ClickUpToken == "" {
		missing = append(missing, "clickup_token")
	}
	if c.DefaultListID == "" {
		missing = append(missing, "default_list_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.Threshold < 0.0 || c.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0 (got %.2f)", c.Threshold)
	}
	return nil
}
