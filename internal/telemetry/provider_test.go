package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Run("disabled config is always valid", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Endpoint = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("enabled without endpoint", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		cfg.Endpoint = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingEndpoint)
	})

	t.Run("sample rate bounds", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		cfg.SampleRate = 1.5
		assert.Error(t, cfg.Validate())
	})
}

func TestDisabledProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), NewDefaultConfig(), nil)
	require.NoError(t, err)

	// Noop tracer still produces usable spans.
	_, span := p.Tracer("test").Start(context.Background(), "op")
	span.End()

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProviderRejectsInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = ""
	_, err := NewProvider(context.Background(), cfg, nil)
	assert.Error(t, err)
}
