package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoAPIKey means neither the environment nor the config file holds an
// Anthropic API key.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

const apiKeyEnvVar = "ANTHROPIC_API_KEY"

// GetAPIKey resolves the Anthropic API key, preferring the environment
// over the config file. Bedrock sessions authenticate through AWS
// credentials and skip this lookup entirely.
func GetAPIKey(cfg *Config) (string, error) {
	if key := os.Getenv(apiKeyEnvVar); key != "" {
		return key, nil
	}
	if key := configKey(cfg); key != "" {
		return key, nil
	}
	return "", ErrNoAPIKey
}

// configKey returns the usable key from the config file, expanding env
// var references. An unexpanded ${...} placeholder counts as unset.
func configKey(cfg *Config) string {
	if cfg == nil || cfg.Anthropic.APIKey == "" {
		return ""
	}
	key := os.ExpandEnv(cfg.Anthropic.APIKey)
	if key == "" || strings.HasPrefix(key, "${") {
		return ""
	}
	return key
}

// ValidateAPIKey checks the key's shape without calling the API, so an
// obvious paste error fails fast instead of at the first model request.
func ValidateAPIKey(key string) error {
	switch {
	case key == "":
		return ErrNoAPIKey
	case !strings.HasPrefix(key, "sk-ant-"):
		return errors.New("invalid API key format: expected 'sk-ant-' prefix")
	case len(key) < 20:
		return errors.New("invalid API key format: key too short")
	}
	return nil
}

// MaskAPIKey renders a key safe for terminal output, keeping just the
// prefix and the last four characters.
func MaskAPIKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 15:
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// KeySource identifies where the active API key came from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// GetAPIKeySource reports which location GetAPIKey would read from.
func GetAPIKeySource(cfg *Config) KeySource {
	if os.Getenv(apiKeyEnvVar) != "" {
		return KeySourceEnv
	}
	if configKey(cfg) != "" {
		return KeySourceConfig
	}
	return KeySourceNone
}
