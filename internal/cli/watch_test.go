package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edc/internal/archive"
	"github.com/roach88/edc/internal/config"
	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/refdata"
	"github.com/roach88/edc/internal/store"
	"github.com/roach88/edc/internal/testutil"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func startWatch(t *testing.T, env *testEnv, opts *WatchOptions) (*syncBuffer, func() error) {
	t.Helper()
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, opts, env.Config, out)
	}()
	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("watch did not stop")
			return nil
		}
	}
	t.Cleanup(func() { cancel() })
	return out, stop
}

func TestWatch_PrintsRecordsAndRecordsHistory(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Archive.Enabled = true
	})
	jr := testutil.NewJournal(t)
	name := "Journal.2025-05-01T120000.01.log"
	// Bootstrap starts at the last system boundary, so it goes first.
	lines := [][]byte{
		jr.Line(journal.KindFSDJump, testutil.Fields{"StarSystem": "Lave", "SystemAddress": 1, "JumpDist": 12.5}),
		jr.Line(journal.KindCommander, testutil.Fields{"Name": "Jameson"}),
	}
	var content []byte
	for _, l := range lines {
		content = append(content, l...)
		content = append(content, '\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(env.Config.JournalDir, name), content, 0o644))

	out, stop := startWatch(t, env, &WatchOptions{RootOptions: &RootOptions{Format: "text"}})

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Commander: Jameson")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "Arrived: Lave (12.50 ly)")
	assert.Contains(t, out.String(), "Watching "+name)
	require.NoError(t, stop())

	st, err := store.Open(env.Config.History.Path)
	require.NoError(t, err)
	defer st.Close()
	notices, err := st.Notices(context.Background(), store.NoticeQuery{Contains: "Arrived: Lave"})
	require.NoError(t, err)
	assert.Len(t, notices, 1)

	archives, err := filepath.Glob(filepath.Join(env.Config.Archive.Dir, "*"+archive.Ext))
	require.NoError(t, err)
	require.Len(t, archives, 1)
	var archived int
	require.NoError(t, archive.ReadFile(archives[0], func([]byte) error {
		archived++
		return nil
	}))
	assert.Equal(t, 2, archived)
}

func TestWatch_JSONNoticesAndFeed(t *testing.T) {
	addr := freeAddr(t)
	env := newTestEnv(t, func(c *config.Config) {
		c.History.Enabled = false
		c.Feed.Addr = addr
	})
	jr := testutil.NewJournal(t)
	line := jr.Line(journal.KindLocation, testutil.Fields{"StarSystem": "Achenar", "SystemAddress": 2})
	require.NoError(t, os.WriteFile(filepath.Join(env.Config.JournalDir, "Journal.01.log"), append(line, '\n'), 0o644))

	out, stop := startWatch(t, env, &WatchOptions{RootOptions: &RootOptions{Format: "json"}})

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Location: Achenar")
	}, 5*time.Second, 10*time.Millisecond)

	var got map[string]any
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/state")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		got = nil
		if json.NewDecoder(resp.Body).Decode(&got) != nil {
			return false
		}
		sys, _ := got["system"].(map[string]any)
		return sys["name"] == "Achenar"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, stop())

	first := strings.SplitN(strings.TrimSpace(out.String()), "\n", 2)[0]
	var n map[string]any
	require.NoError(t, json.Unmarshal([]byte(first), &n), "each notice is one JSON object per line")
	assert.Contains(t, n, "text")
	assert.Contains(t, n, "source")
}

func TestWatch_WaitsForJournal(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.History.Enabled = false
	})

	out, stop := startWatch(t, env, &WatchOptions{RootOptions: &RootOptions{Format: "text"}})
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Waiting for journal in")
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, stop())
}

func TestWatch_ValueTableNotLoadedNotice(t *testing.T) {
	env := newTestEnv(t, nil)

	out, stop := startWatch(t, env, &WatchOptions{RootOptions: &RootOptions{Format: "text"}})
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Value table not loaded: "+refdata.OrganismValuesFile)
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "Value table not loaded: "+refdata.PlanetValuesFile)
	assert.NotContains(t, out.String(), refdata.CatalogFile)
	require.NoError(t, stop())

	st, err := store.Open(env.Config.History.Path)
	require.NoError(t, err)
	defer st.Close()
	notices, err := st.Notices(context.Background(), store.NoticeQuery{Contains: "Value table not loaded"})
	require.NoError(t, err)
	assert.Len(t, notices, 2)
}

func TestRefdataNotices(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	got := refdataNotices([]refdata.TableStatus{
		{File: refdata.PlanetValuesFile, Loaded: true},
		{File: refdata.OrganismValuesFile},
		{File: refdata.POIsFile},
		{File: refdata.FarmingFile, Err: errors.New("bad json")},
	}, log)
	assert.Equal(t, []string{
		"Value table not loaded: exo_values.json; values show as unknown",
		"Reference data unusable: elite_farming_locations.json (bad json)",
	}, got)
}
