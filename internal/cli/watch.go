package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/edc/internal/archive"
	"github.com/roach88/edc/internal/config"
	"github.com/roach88/edc/internal/feed"
	"github.com/roach88/edc/internal/refdata"
	"github.com/roach88/edc/internal/session"
	"github.com/roach88/edc/internal/store"
	"github.com/roach88/edc/internal/watcher"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	JournalDir string
	FeedAddr   string
	NoHistory  bool
	Keep       int
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the newest journal and print notices",
		Long: `Follow the newest journal file in the journal directory, switching
to newer files as the game creates them, and print a notice for everything
worth knowing. Runs until interrupted.

With history enabled every notice is recorded; with the archive enabled the
raw lines are kept for replay; with a feed address the session is served
over HTTP and websocket.

Examples:
  edc watch
  edc watch --journal-dir "/mnt/c/Users/cmdr/Saved Games/Frontier Developments/Elite Dangerous"
  edc watch --feed 127.0.0.1:8765 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			if opts.JournalDir != "" {
				cfg.JournalDir = opts.JournalDir
			}
			if opts.FeedAddr != "" {
				cfg.Feed.Addr = opts.FeedAddr
			}
			if opts.NoHistory {
				cfg.History.Enabled = false
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts, cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.JournalDir, "journal-dir", "", "journal directory (overrides config)")
	cmd.Flags().StringVar(&opts.FeedAddr, "feed", "", "serve the feed on this address (overrides config)")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not record notices")
	cmd.Flags().IntVar(&opts.Keep, "keep", 0, "prune history to the newest N sessions on start (0 keeps all)")

	return cmd
}

// runWatch runs the watcher, runner and optional feed until ctx ends.
func runWatch(ctx context.Context, opts *WatchOptions, cfg *config.Config, out io.Writer) error {
	log := slog.Default().With("component", "cli")

	set := refdata.Open(cfg.DataDir)
	q := watcher.NewQueue()
	for _, text := range refdataNotices(set.Status(), log) {
		q.Enqueue(watcher.Item{Type: watcher.ItemStatus, Status: text})
	}

	id := session.UUIDv7Generator{}.Generate()
	ropts := []session.Option{
		session.WithIDGenerator(session.NewFixedGenerator(id)),
		session.WithRefresh(cfg.Session.RefreshInterval),
		session.OnNotice(noticePrinter(opts.Format, out)),
	}

	if cfg.History.Enabled {
		st, err := store.Open(cfg.History.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history", err)
		}
		defer st.Close()
		if opts.Keep > 0 {
			n, err := st.Prune(ctx, opts.Keep)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to prune history", err)
			}
			log.Info("history pruned", "sessions_removed", n)
		}
		ropts = append(ropts, session.WithHistory(st))
	}

	if cfg.Archive.Enabled {
		aw := archive.NewWriter(cfg.Archive.Dir, id)
		defer func() {
			if err := aw.Close(); err != nil {
				log.Error("close archive", "path", aw.Path(), "error", err)
			}
		}()
		ropts = append(ropts, session.WithArchive(aw))
	}

	var hub *feed.Hub
	if cfg.Feed.Addr != "" {
		hub = feed.NewHub(nil)
		ropts = append(ropts, session.OnNotice(hub.Notice), session.OnSnapshot(hub.Snapshot))
	}

	eng := newEngine(cfg, set)
	runner := session.New(eng, q, ropts...)
	w := watcher.New(cfg.WatcherConfig(), q)

	var (
		wg      sync.WaitGroup
		feedMu  sync.Mutex
		feedErr error
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer q.Close()
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("watcher stopped", "error", err)
		}
	}()

	if hub != nil {
		srv := feed.NewServer(runner, hub, feed.Options{AllowedOrigins: cfg.Feed.AllowedOrigins})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx, cfg.Feed.Addr); err != nil {
				feedMu.Lock()
				feedErr = err
				feedMu.Unlock()
				log.Error("feed stopped", "error", err)
				cancel()
			}
		}()
	}

	log.Info("watching", "dir", cfg.JournalDir, "session", runner.ID())
	runErr := runner.Run(ctx)
	cancel()
	wg.Wait()

	folded, faults := runner.Stats()
	log.Info("session ended", "records", folded, "faults", faults)

	feedMu.Lock()
	defer feedMu.Unlock()
	if feedErr != nil {
		return WrapExitError(ExitCommandError, "feed failed", feedErr)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// refdataNotices turns reference table status into degraded-mode notices.
// A missing value table gets a notice; the other documents are optional and
// only logged.
func refdataNotices(status []refdata.TableStatus, log *slog.Logger) []string {
	var out []string
	for _, st := range status {
		switch {
		case st.Err != nil:
			log.Warn("reference document unusable", "file", st.File, "error", st.Err)
			out = append(out, fmt.Sprintf("Reference data unusable: %s (%v)", st.File, st.Err))
		case st.Loaded:
		case st.File == refdata.PlanetValuesFile || st.File == refdata.OrganismValuesFile:
			log.Info("value table not loaded", "file", st.File)
			out = append(out, fmt.Sprintf("Value table not loaded: %s; values show as unknown", st.File))
		default:
			log.Info("reference document not loaded; related notices are reduced", "file", st.File)
		}
	}
	return out
}

// noticePrinter writes each notice as a text line or a JSON object per
// line.
func noticePrinter(format string, out io.Writer) func(session.Notice) {
	if format == "json" {
		enc := json.NewEncoder(out)
		return func(n session.Notice) {
			_ = enc.Encode(n)
		}
	}
	return func(n session.Notice) {
		fmt.Fprintf(out, "%s  %s\n", n.At.Local().Format("15:04:05"), n.Text)
	}
}
