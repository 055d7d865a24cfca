package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bgtimer/internal/config"
)

func TestJSONLoggerFormatsErrorsAndDurations(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogFormatJSON, slog.LevelInfo)

	logger.Warn("persist failed", "error", errors.New("disk full"), "interval", 100*time.Millisecond)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "persist failed", rec["msg"])
	assert.Equal(t, "100ms", rec["interval"])

	errAttr, ok := rec["error"].(map[string]any)
	require.True(t, ok, "error is expanded into a group: %v", rec["error"])
	assert.Equal(t, "disk full", errAttr["message"])
}

func TestLevelFiltering(t *testing.T) {
	for _, format := range []config.LogFormat{config.LogFormatText, config.LogFormatJSON, config.LogFormatConsole, config.LogFormatDev} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, format, slog.LevelWarn)
			logger.Info("hidden")
			assert.Zero(t, buf.Len())
			logger.Warn("shown")
			assert.Contains(t, buf.String(), "shown")
		})
	}
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Level(config.LogLevelInfo, true))
	assert.Equal(t, slog.LevelDebug, Level(config.LogLevelDebug, false))
	assert.Equal(t, slog.LevelWarn, Level(config.LogLevelWarn, false))
	assert.Equal(t, slog.LevelError, Level(config.LogLevelError, false))
	assert.Equal(t, slog.LevelInfo, Level("", false))
}

func TestNoop(t *testing.T) {
	assert.False(t, Noop.Enabled(t.Context(), slog.LevelError))
	Noop.Error("dropped")
}
