package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment variables read by Load.
const envPrefix = "PERSONA_"

// maxConfigFileSize caps config files at 1MB.
const maxConfigFileSize = 1024 * 1024

// Load builds a Config from an optional YAML file plus environment
// overrides.
//
// Precedence (highest to lowest):
//  1. Environment variables (PERSONA_PATTERN_MIN_OCCURRENCES, ...)
//  2. YAML config file, when configPath names an existing file
//  3. Hardcoded defaults
//
// Environment variables map to config keys by splitting on the first
// underscore after the prefix:
//
//	PERSONA_LOGGING_LEVEL            -> logging.level
//	PERSONA_BANDIT_EXPLORATION_RATE  -> bandit.exploration_rate
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if len(content) > maxConfigFileSize {
				return nil, fmt.Errorf("config file %s exceeds %d bytes", configPath, maxConfigFileSize)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// PERSONA_PATTERN_MIN_OCCURRENCES -> pattern.min_occurrences
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// NewDefault returns a config populated entirely from defaults.
func NewDefault() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}
