package logging

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"
)

var (
	// ErrInvalidFormat indicates an unsupported log output format.
	ErrInvalidFormat = errors.New("format must be 'json' or 'console'")
	// ErrInvalidLevel indicates an unparseable log level.
	ErrInvalidLevel = errors.New("invalid log level")
)

// Config holds logging configuration.
type Config struct {
	Level  string            `koanf:"level"`
	Format string            `koanf:"format"`
	Fields map[string]string `koanf:"fields"`

	// RedactUserIDs replaces user identifiers with a stable short hash.
	// On by default; disable only in local debugging.
	RedactUserIDs bool `koanf:"redact_user_ids"`
}

// NewDefaultConfig returns production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
		Fields: map[string]string{
			"service": "persona",
		},
		RedactUserIDs: true,
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("%w, got %q", ErrInvalidFormat, c.Format)
	}
	if _, err := parseLevel(c.Level); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidLevel, c.Level, err)
	}
	return nil
}

// parseLevel parses a level string into a zapcore.Level.
func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}
