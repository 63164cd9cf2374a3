package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, Config{Level: "debug", Format: "json"}))
	logger.Debug("endpoint built", slog.String("method", "GET"), slog.Int("samples", 3))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "endpoint built", rec["msg"])
	assert.Equal(t, "GET", rec["method"])
	assert.Equal(t, float64(3), rec["samples"])
}

func TestNewHandler_TextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, Config{Level: "warn"}))
	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "msg=kept")
}

func TestNewHandler_Redacts(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, Config{Level: "info", Format: "json"}))
	logger.Info("request",
		slog.String("Authorization", "Bearer secret"),
		slog.String("x-api-key", "k"),
		slog.Group("headers", slog.String("cookie", "sid=1"), slog.String("accept", "*/*")),
	)

	out := buf.String()
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "sid=1")
	assert.Contains(t, out, `"accept":"*/*"`)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, redacted, rec["Authorization"])
}

func TestSetup_File(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "sdkgen.log")
	cleanup, err := Setup(Config{Level: "info", FilePath: path, MaxSizeMB: 1, Stderr: &stderr})
	require.NoError(t, err)

	slog.Info("written to file")
	slog.Warn("target failed", slog.String("language", "go"))
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), "target failed")

	assert.NotContains(t, stderr.String(), "written to file")
	assert.Contains(t, stderr.String(), "msg=\"target failed\" language=go")
}

func TestFromConfig(t *testing.T) {
	got := FromConfig(&config.Config{LogLevel: "debug", LogFormat: "json", LogFile: "x.log", LogMaxSizeMB: 1})
	assert.Equal(t, "debug", got.Level)
	assert.Equal(t, "json", got.Format)
	assert.Equal(t, "x.log", got.FilePath)
	assert.Equal(t, 1, got.MaxSizeMB)
}
