package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edc/internal/config"
)

// restoreDefault puts back the slog default after a test replaces it.
func restoreDefault(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestSetup_TextRespectsLevel(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	_, closeFn, err := Setup(config.LogConfig{Level: "warn"}, &buf, false)
	require.NoError(t, err)
	defer closeFn()

	slog.Info("hidden")
	slog.Warn("shown", "system", "Sol")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "system=Sol")
}

func TestSetup_VerboseForcesDebug(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	logger, closeFn, err := Setup(config.LogConfig{Level: "error"}, &buf, true)
	require.NoError(t, err)
	defer closeFn()

	logger.Debug("detail")
	assert.Contains(t, buf.String(), "detail")
}

func TestSetup_JSONAndFile(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "edc.log")

	_, closeFn, err := Setup(config.LogConfig{Level: "info", JSON: true, File: file}, &buf, false)
	require.NoError(t, err)

	slog.Info("arrived", "system", "Lave")
	require.NoError(t, closeFn())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	assert.Equal(t, "arrived", rec["msg"])
	assert.Equal(t, "Lave", rec["system"])

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"system":"Lave"`)
}
