package testutil

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edc/internal/journal"
)

func TestLine_AddsEventAndTimestamp(t *testing.T) {
	rec := Record(t, journal.KindFSDJump, Fields{"StarSystem": "Sol"})

	assert.Equal(t, journal.KindFSDJump, rec.Kind())
	assert.Equal(t, "2025-05-01T12:00:00Z", rec.Timestamp())
	assert.Equal(t, "Sol", rec.Text("StarSystem"))
}

func TestLine_KeepsExplicitTimestamp(t *testing.T) {
	rec := Record(t, journal.KindScan, Fields{"timestamp": "2025-01-01T00:00:00Z"})
	assert.Equal(t, "2025-01-01T00:00:00Z", rec.Timestamp())
}

func TestJournal_CreateAndAppend(t *testing.T) {
	j := NewJournal(t)
	mod := time.Now().Add(-time.Hour)

	path := j.Create("Journal.01.log", mod,
		j.Line(journal.KindLocation, Fields{"StarSystem": "Sol"}),
	)
	j.Append("Journal.01.log", j.Line(journal.KindFSDJump, Fields{"StarSystem": "Achenar"}))
	j.AppendRaw("Journal.01.log", []byte(`{"event":"Sc`))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(b), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"timestamp":"2025-05-01T12:00:00Z"`)
	assert.Contains(t, lines[1], `"timestamp":"2025-05-01T12:00:01Z"`)
	assert.Equal(t, `{"event":"Sc`, lines[2])
}
