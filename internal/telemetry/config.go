package telemetry

import (
	"errors"
	"fmt"
)

// ErrMissingEndpoint indicates tracing is enabled without an endpoint.
var ErrMissingEndpoint = errors.New("endpoint required when tracing is enabled")

// Config holds tracing configuration. Tracing is off unless enabled
// explicitly; a disabled provider installs noop tracers.
type Config struct {
	Enabled        bool    `koanf:"enabled"`
	Endpoint       string  `koanf:"endpoint"`
	ServiceName    string  `koanf:"service_name"`
	ServiceVersion string  `koanf:"service_version"`
	Insecure       bool    `koanf:"insecure"`
	SampleRate     float64 `koanf:"sample_rate"`
}

// NewDefaultConfig returns a disabled tracing config.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		Endpoint:       "localhost:4317",
		ServiceName:    "persona",
		ServiceVersion: "dev",
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return ErrMissingEndpoint
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be in [0, 1], got %v", c.SampleRate)
	}
	return nil
}
