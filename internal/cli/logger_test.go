package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/jokebox/internal/cli/config"
)

func TestNewLogger(t *testing.T) {
	t.Run("auto on a buffer is json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, config.LogConfig{Level: "info", Format: "auto"})
		require.NoError(t, err)

		logger.Info("hello", "n", 1)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["msg"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, config.LogConfig{Level: "debug", Format: "text"})
		require.NoError(t, err)

		logger.Debug("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
		require.NoError(t, err)

		logger.Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := NewLogger(&bytes.Buffer{}, config.LogConfig{Level: "loud", Format: "json"})
		assert.Error(t, err)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := NewLogger(&bytes.Buffer{}, config.LogConfig{Level: "info", Format: "xml"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown log format")
	})
}
