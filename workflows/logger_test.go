package workflow

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewZapLogger("warn", &buf)
	require.NoError(t, err)

	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	logger.Warn("warn %d", 3)
	logger.With("run", "abc").Error("error %d", 4)
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "warn 3")
	assert.Contains(t, out, "error 4")
	assert.Contains(t, out, "abc")
}

func TestZapLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewZapLogger("loud", &bytes.Buffer{})
	assert.Error(t, err)
}
