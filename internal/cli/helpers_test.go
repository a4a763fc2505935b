package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/edc/internal/config"
)

// testEnv is a throwaway config with every path under one temp dir.
type testEnv struct {
	Dir        string
	ConfigPath string
	Config     *config.Config
}

func newTestEnv(t *testing.T, edit func(c *config.Config)) *testEnv {
	t.Helper()
	keepSlogDefault(t)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.JournalDir = filepath.Join(dir, "journals")
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.Log.Level = "error"
	cfg.History = config.HistoryConfig{Enabled: true, Path: filepath.Join(dir, "history.db")}
	cfg.Archive = config.ArchiveConfig{Dir: filepath.Join(dir, "archive")}
	cfg.Watcher.PollInterval = 10 * time.Millisecond
	cfg.Watcher.WaitInterval = 10 * time.Millisecond
	cfg.Session.RefreshInterval = 10 * time.Millisecond
	if edit != nil {
		edit(cfg)
	}

	require.NoError(t, os.MkdirAll(cfg.JournalDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.Save(path))
	return &testEnv{Dir: dir, ConfigPath: path, Config: cfg}
}

// keepSlogDefault restores the process logger replaced by commands.
func keepSlogDefault(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeData(t *testing.T, env *testEnv, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(env.Config.DataDir, name), []byte(body), 0o644))
}

// syncBuffer is a bytes.Buffer safe for a writer and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
