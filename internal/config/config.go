// Package config handles configuration loading for Elisa.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for Elisa.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Defaults   DefaultsConfig   `mapstructure:"defaults"`
	Models     ModelsConfig     `mapstructure:"models"`
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Meetings   MeetingsConfig   `mapstructure:"meetings"`
}

// AnthropicConfig holds model API settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// DefaultsConfig holds default values for build sessions.
type DefaultsConfig struct {
	// TokenBudget is the per-session token cap.
	TokenBudget int `mapstructure:"token_budget"`
	// MaxAgents is the maximum number of tasks in flight at once.
	MaxAgents int `mapstructure:"max_agents"`
	// MaxRetries is the number of correction cycles per failed task.
	MaxRetries int `mapstructure:"max_retries"`
}

// ModelsConfig holds model routing settings.
type ModelsConfig struct {
	// Override forces a single model for every call, bypassing routing.
	Override string `mapstructure:"override"`
	// Allowed restricts routing to a model whitelist.
	Allowed []string `mapstructure:"allowed"`
	// RoleOverrides pins a model per role (builder, tester, ...).
	RoleOverrides map[string]string `mapstructure:"role_overrides"`
	// Conserve forces budget-conserving tier demotion from the start.
	Conserve bool `mapstructure:"conserve"`
}

// DeploymentConfig holds deployment settings.
type DeploymentConfig struct {
	// Target overrides the spec's deployment target when set.
	Target string `mapstructure:"target"`
	// Port is the serial port for hardware targets; empty auto-detects.
	Port string `mapstructure:"port"`
}

// MeetingsConfig holds meeting-trigger settings.
type MeetingsConfig struct {
	// Enabled toggles milestone meetings.
	Enabled bool `mapstructure:"enabled"`
	// Curriculum is an optional YAML file of teaching moments.
	Curriculum string `mapstructure:"curriculum"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, ELISA_MODEL, ELISA_ALLOWED_MODELS)
// 2. Project config (.elisa.yaml in current directory or parent)
// 3. User config (~/.config/elisa/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")
	v.BindEnv("anthropic.aws_profile", "AWS_PROFILE")
	v.BindEnv("models.override", "ELISA_MODEL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// ELISA_ALLOWED_MODELS is a comma-separated list.
	if allowed := os.Getenv("ELISA_ALLOWED_MODELS"); allowed != "" {
		cfg.Models.Allowed = nil
		for _, m := range strings.Split(allowed, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Models.Allowed = append(cfg.Models.Allowed, m)
			}
		}
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("defaults.token_budget", cfg.Defaults.TokenBudget)
	v.Set("defaults.max_agents", cfg.Defaults.MaxAgents)
	v.Set("defaults.max_retries", cfg.Defaults.MaxRetries)
	v.Set("models.override", cfg.Models.Override)
	v.Set("models.allowed", cfg.Models.Allowed)
	v.Set("models.role_overrides", cfg.Models.RoleOverrides)
	v.Set("models.conserve", cfg.Models.Conserve)
	v.Set("deployment.target", cfg.Deployment.Target)
	v.Set("deployment.port", cfg.Deployment.Port)
	v.Set("meetings.enabled", cfg.Meetings.Enabled)
	v.Set("meetings.curriculum", cfg.Meetings.Curriculum)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)

	v.SetDefault("defaults.token_budget", 500000)
	v.SetDefault("defaults.max_agents", 3)
	v.SetDefault("defaults.max_retries", 2)

	v.SetDefault("models.override", "")
	v.SetDefault("models.conserve", false)

	v.SetDefault("deployment.target", "")
	v.SetDefault("deployment.port", "")

	v.SetDefault("meetings.enabled", true)
	v.SetDefault("meetings.curriculum", "")
}

// getUserConfigDir returns the XDG config directory for Elisa.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "elisa")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "elisa")
	}
	return filepath.Join(home, ".config", "elisa")
}

// findProjectConfig searches for .elisa.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".elisa.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			TokenBudget: 500000,
			MaxAgents:   3,
			MaxRetries:  2,
		},
		Meetings: MeetingsConfig{
			Enabled: true,
		},
	}
}
