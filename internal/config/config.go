// Package config provides configuration loading for persona.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/persona/internal/logging"
	"github.com/fyrsmithlabs/persona/internal/telemetry"
)

// Config is the root configuration for the personalization service.
type Config struct {
	Logging      logging.Config     `koanf:"logging"`
	Telemetry    telemetry.Config   `koanf:"telemetry"`
	Preference   PreferenceConfig   `koanf:"preference"`
	Pattern      PatternConfig      `koanf:"pattern"`
	Bandit       BanditConfig       `koanf:"bandit"`
	Meta         MetaConfig         `koanf:"meta"`
	Satisfaction SatisfactionConfig `koanf:"satisfaction"`
}

// PreferenceConfig tunes the preference learner.
type PreferenceConfig struct {
	// EmbeddingDim is the length of the preference embedding vector.
	EmbeddingDim int `koanf:"embedding_dim"`
}

// PatternConfig tunes the pattern detector and its cache.
type PatternConfig struct {
	// MinOccurrences is how many times a behavior must repeat before
	// it is reported as a pattern.
	MinOccurrences int `koanf:"min_occurrences"`
	// CacheFreshness is how long detected patterns stay fresh before
	// a re-detection is triggered.
	CacheFreshness time.Duration `koanf:"cache_freshness"`
}

// BanditConfig tunes the contextual action optimizer.
type BanditConfig struct {
	// ExplorationRate scales the UCB exploration bonus.
	ExplorationRate float64 `koanf:"exploration_rate"`
}

// MetaConfig tunes peer-based adaptation.
type MetaConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for a peer
	// profile to influence strategy selection.
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
}

// SatisfactionConfig tunes trajectory prediction.
type SatisfactionConfig struct {
	// HorizonMinutes is the default prediction horizon.
	HorizonMinutes int `koanf:"horizon_minutes"`
}

// applyDefaults fills zero values with production defaults.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging = *logging.NewDefaultConfig()
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry = *telemetry.NewDefaultConfig()
	}
	if cfg.Preference.EmbeddingDim == 0 {
		cfg.Preference.EmbeddingDim = 128
	}
	if cfg.Pattern.MinOccurrences == 0 {
		cfg.Pattern.MinOccurrences = 3
	}
	if cfg.Pattern.CacheFreshness == 0 {
		cfg.Pattern.CacheFreshness = time.Hour
	}
	if cfg.Bandit.ExplorationRate == 0 {
		cfg.Bandit.ExplorationRate = 1.4
	}
	if cfg.Meta.SimilarityThreshold == 0 {
		cfg.Meta.SimilarityThreshold = 0.7
	}
	if cfg.Satisfaction.HorizonMinutes == 0 {
		cfg.Satisfaction.HorizonMinutes = 60
	}
}

// Validate checks the full configuration tree.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if c.Preference.EmbeddingDim < 1 {
		return fmt.Errorf("preference: embedding_dim must be positive, got %d", c.Preference.EmbeddingDim)
	}
	if c.Pattern.MinOccurrences < 1 {
		return fmt.Errorf("pattern: min_occurrences must be positive, got %d", c.Pattern.MinOccurrences)
	}
	if c.Pattern.CacheFreshness < 0 {
		return fmt.Errorf("pattern: cache_freshness must not be negative, got %v", c.Pattern.CacheFreshness)
	}
	if c.Bandit.ExplorationRate < 0 {
		return fmt.Errorf("bandit: exploration_rate must not be negative, got %v", c.Bandit.ExplorationRate)
	}
	if c.Meta.SimilarityThreshold < 0 || c.Meta.SimilarityThreshold > 1 {
		return fmt.Errorf("meta: similarity_threshold must be in [0, 1], got %v", c.Meta.SimilarityThreshold)
	}
	if c.Satisfaction.HorizonMinutes < 1 {
		return fmt.Errorf("satisfaction: horizon_minutes must be positive, got %d", c.Satisfaction.HorizonMinutes)
	}
	return nil
}
