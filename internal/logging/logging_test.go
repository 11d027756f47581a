package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, NewDefaultConfig().Validate())
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Format = "logfmt"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "format")
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Level = "loud"
		assert.Error(t, cfg.Validate())
	})
}

func TestNew(t *testing.T) {
	t.Run("creates logger with nil config", func(t *testing.T) {
		logger, err := New(nil)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("creates console logger", func(t *testing.T) {
		logger, err := New(&Config{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("propagates invalid config", func(t *testing.T) {
		_, err := New(&Config{Level: "info", Format: "xml"})
		assert.Error(t, err)
	})
}
