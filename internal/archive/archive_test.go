package archive

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, path string) []string {
	t.Helper()
	var out []string
	require.NoError(t, ReadFile(path, func(line []byte) error {
		out = append(out, string(line))
		return nil
	}))
	return out
}

func TestWriter_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	w := NewWriter(dir, "session-1")

	lines := []string{
		`{"event":"Commander","Name":"Jameson"}`,
		`{"event":"FSDJump","StarSystem":"Achenar"}`,
	}
	for _, l := range lines {
		require.NoError(t, w.Append([]byte(l)))
	}
	require.NoError(t, w.Close())

	assert.Equal(t, filepath.Join(dir, "session-1.jsonl.zst"), w.Path())
	assert.Equal(t, lines, collect(t, w.Path()))
}

func TestWriter_NothingWrittenNoFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "empty")
	require.NoError(t, w.Close())

	_, err := os.Stat(w.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestOpen_PlainJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Journal.2025-05-01T120000.01.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n\nc"), 0o644))

	assert.Equal(t, []string{"a", "b", "", "c"}, collect(t, path))
	assert.False(t, Compressed(path))
	assert.True(t, Compressed("x"+Ext))
}

func TestLines_StopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	n := 0
	err := Lines(strings.NewReader("1\n2\n3\n"), func([]byte) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, n)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.log"))
	assert.True(t, os.IsNotExist(err))
}
