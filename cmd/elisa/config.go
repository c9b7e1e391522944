package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zoidbergclawd/elisa-sub008/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Elisa configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/elisa/config.yaml
Project-specific overrides can be placed in .elisa.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s (source: %s)\n", config.MaskAPIKey(cfg.Anthropic.APIKey), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("defaults.token_budget: %d\n", cfg.Defaults.TokenBudget)
	fmt.Printf("defaults.max_agents: %d\n", cfg.Defaults.MaxAgents)
	fmt.Printf("defaults.max_retries: %d\n", cfg.Defaults.MaxRetries)
	fmt.Printf("models.override: %s\n", orUnset(cfg.Models.Override))
	fmt.Printf("models.allowed: %s\n", orUnset(strings.Join(cfg.Models.Allowed, ", ")))
	fmt.Printf("models.conserve: %t\n", cfg.Models.Conserve)
	fmt.Printf("deployment.target: %s\n", orUnset(cfg.Deployment.Target))
	fmt.Printf("deployment.port: %s\n", orUnset(cfg.Deployment.Port))
	fmt.Printf("meetings.enabled: %t\n", cfg.Meetings.Enabled)
	fmt.Printf("meetings.curriculum: %s\n", orUnset(cfg.Meetings.Curriculum))
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "anthropic.aws_region":
		return orUnset(cfg.Anthropic.AWSRegion), nil
	case "defaults.token_budget":
		return strconv.Itoa(cfg.Defaults.TokenBudget), nil
	case "defaults.max_agents":
		return strconv.Itoa(cfg.Defaults.MaxAgents), nil
	case "defaults.max_retries":
		return strconv.Itoa(cfg.Defaults.MaxRetries), nil
	case "models.override":
		return orUnset(cfg.Models.Override), nil
	case "models.conserve":
		return strconv.FormatBool(cfg.Models.Conserve), nil
	case "deployment.target":
		return orUnset(cfg.Deployment.Target), nil
	case "deployment.port":
		return orUnset(cfg.Deployment.Port), nil
	case "meetings.enabled":
		return strconv.FormatBool(cfg.Meetings.Enabled), nil
	case "meetings.curriculum":
		return orUnset(cfg.Meetings.Curriculum), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_aws_bedrock: %w", err)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "defaults.token_budget":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for token_budget: %w", err)
		}
		cfg.Defaults.TokenBudget = n
	case "defaults.max_agents":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_agents: %w", err)
		}
		cfg.Defaults.MaxAgents = n
	case "defaults.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_retries: %w", err)
		}
		cfg.Defaults.MaxRetries = n
	case "models.override":
		cfg.Models.Override = value
	case "models.conserve":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for models.conserve: %w", err)
		}
		cfg.Models.Conserve = b
	case "deployment.target":
		cfg.Deployment.Target = value
	case "deployment.port":
		cfg.Deployment.Port = value
	case "meetings.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for meetings.enabled: %w", err)
		}
		cfg.Meetings.Enabled = b
	case "meetings.curriculum":
		cfg.Meetings.Curriculum = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
