package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/internal/config"
)

func consoleLogging(level, format string) config.LoggingConfig {
	return config.LoggingConfig{Level: level, Format: format, Output: "console"}
}

func TestNewLogger_JSONInjectsTraceAndRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(consoleLogging("info", "json"), &buf)
	require.NoError(t, err)
	defer closer.Close()

	ctx := WithRunID(WithTraceID(context.Background(), "trace-1"), "run-9")
	logger.InfoContext(ctx, "reshape complete", "records", 12)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reshape complete", entry["msg"])
	assert.Equal(t, "trace-1", entry["trace_id"])
	assert.Equal(t, "run-9", entry["run_id"])
	assert.Equal(t, float64(12), entry["records"])
	assert.Contains(t, entry, "source")
}

func TestNewLogger_NoContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(consoleLogging("info", "json"), &buf)
	require.NoError(t, err)

	logger.With("component", "aligner").Info("joined")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "aligner", entry["component"])
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "run_id")
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(consoleLogging("warn", "json"), &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(consoleLogging("debug", "text"), &buf)
	require.NoError(t, err)

	logger.Debug("country skipped", "country", "Narnia")

	out := buf.String()
	assert.Contains(t, out, "country skipped")
	assert.Contains(t, out, "Narnia")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
}

func TestNewLogger_BothWritesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "gapminder.log")
	var buf bytes.Buffer
	logger, closer, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "both", FilePath: logFile}, &buf)
	require.NoError(t, err)

	logger.Info("to both")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "to both")
	assert.Contains(t, buf.String(), "to both")
}

func TestNewLogger_FileOnlySkipsConsole(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gapminder.log")
	var buf bytes.Buffer
	logger, closer, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: logFile}, &buf)
	require.NoError(t, err)

	logger.Info("file only")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "file only")
	assert.Empty(t, buf.String())
}

func TestLogLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"INFO":    "INFO",
		"warn":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
		"":        "INFO",
	}
	for in, want := range tests {
		assert.Equal(t, want, logLevel(in).String(), in)
	}
}

func TestEnsureTraceID(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.Len(t, id, 36)

	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)))
	assert.Empty(t, GetRunID(ctx))
}
