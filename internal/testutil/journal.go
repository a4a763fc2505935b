package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/edc/internal/journal"
)

// Fields is the body of a journal record, without "event".
type Fields = map[string]any

// Line renders one journal line (no trailing newline). A record without a
// "timestamp" gets Epoch.
func Line(t testing.TB, kind journal.Kind, f Fields) []byte {
	t.Helper()
	m := make(map[string]any, len(f)+2)
	for k, v := range f {
		m[k] = v
	}
	m["event"] = string(kind)
	if _, ok := m["timestamp"]; !ok {
		m["timestamp"] = Epoch.Format(time.RFC3339)
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

// Record builds a decoded record the same way the watcher would.
func Record(t testing.TB, kind journal.Kind, f Fields) journal.Record {
	t.Helper()
	rec, err := journal.Decode(Line(t, kind, f))
	require.NoError(t, err)
	return rec
}

// Journal is a temporary journal directory.
type Journal struct {
	Dir string
	TS  *Timestamps
	t   testing.TB
}

// NewJournal creates an empty journal directory under t.TempDir.
func NewJournal(t testing.TB) *Journal {
	t.Helper()
	return &Journal{Dir: t.TempDir(), TS: NewTimestamps(), t: t}
}

// Line renders a line stamped with the journal's next timestamp.
func (j *Journal) Line(kind journal.Kind, f Fields) []byte {
	j.t.Helper()
	m := make(Fields, len(f)+1)
	for k, v := range f {
		m[k] = v
	}
	m["timestamp"] = j.TS.Next()
	return Line(j.t, kind, m)
}

// Path returns the absolute path of a journal file name.
func (j *Journal) Path(name string) string {
	return filepath.Join(j.Dir, name)
}

// Create writes a journal file with the given lines, each newline
// terminated, and sets its modification time.
func (j *Journal) Create(name string, mod time.Time, lines ...[]byte) string {
	j.t.Helper()
	path := j.Path(name)
	require.NoError(j.t, os.WriteFile(path, joinLines(lines), 0o644))
	require.NoError(j.t, os.Chtimes(path, mod, mod))
	return path
}

// Append adds lines to an existing journal file.
func (j *Journal) Append(name string, lines ...[]byte) {
	j.t.Helper()
	f, err := os.OpenFile(j.Path(name), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(j.t, err)
	defer f.Close()
	_, err = f.Write(joinLines(lines))
	require.NoError(j.t, err)
}

// AppendRaw adds bytes verbatim, for partial lines.
func (j *Journal) AppendRaw(name string, b []byte) {
	j.t.Helper()
	f, err := os.OpenFile(j.Path(name), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(j.t, err)
	defer f.Close()
	_, err = f.Write(b)
	require.NoError(j.t, err)
}

// Touch sets a file's modification time.
func (j *Journal) Touch(name string, mod time.Time) {
	j.t.Helper()
	require.NoError(j.t, os.Chtimes(j.Path(name), mod, mod))
}

func joinLines(lines [][]byte) []byte {
	var out []byte
	for _, l := range lines {
		out = append(out, l...)
		out = append(out, '\n')
	}
	return out
}
