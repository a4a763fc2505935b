package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/edc/internal/archive"
	"github.com/roach88/edc/internal/config"
	"github.com/roach88/edc/internal/engine"
	"github.com/roach88/edc/internal/journal"
	"github.com/roach88/edc/internal/refdata"
	"github.com/roach88/edc/internal/session"
	"github.com/roach88/edc/internal/state"
	"github.com/roach88/edc/internal/watcher"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	ShowState bool
	Quiet     bool
}

// ReplayResult summarizes one replayed file.
type ReplayResult struct {
	File      string           `json:"file"`
	Lines     int              `json:"lines"`
	Records   int64            `json:"records"`
	Malformed int              `json:"malformed"`
	Faults    int64            `json:"faults"`
	Notices   []session.Notice `json:"notices"`
	State     *state.Session   `json:"state,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Fold a journal or archive through a fresh engine",
		Long: `Replay a journal file (Journal.*.log) or a session archive
(*.jsonl.zst) from the first line through a fresh engine, printing every
notice and a summary.

Exit codes:
  0 - Replayed with no handler faults
  1 - One or more handlers faulted
  2 - Command error (unreadable file, bad config)

Examples:
  edc replay Journal.2025-05-01T120000.01.log
  edc replay ~/.config/edc/archive/0196.jsonl.zst --state
  edc replay Journal.01.log --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			return runReplay(cmd.Context(), opts, cfg, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowState, "state", false, "include the final state")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "summary only; no notices")

	return cmd
}

// newEngine builds an engine over the configured reference documents.
func newEngine(cfg *config.Config, set *refdata.Set) *engine.Engine {
	return engine.New(
		engine.WithTables(engine.TablesFrom(set)),
		engine.WithThresholds(cfg.Thresholds()),
	)
}

func runReplay(ctx context.Context, opts *ReplayOptions, cfg *config.Config, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := replayFile(ctx, newEngine(cfg, refdata.Open(cfg.DataDir)), path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay "+path, err)
	}
	if !opts.ShowState {
		res.State = nil
	}
	if opts.Quiet {
		res.Notices = []session.Notice{}
	}

	f := opts.formatter(cmd)
	if err := f.Result(res, func(w io.Writer) { writeReplayText(w, res) }); err != nil {
		return err
	}
	if res.Faults > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d handler fault(s)", res.Faults))
	}
	return nil
}

// replayFile decodes every line of path and folds it through e with a
// fresh session. Blank lines are skipped; malformed lines are counted.
func replayFile(ctx context.Context, e *engine.Engine, path string) (*ReplayResult, error) {
	res := &ReplayResult{File: path, Notices: []session.Notice{}}

	r := session.New(e, watcher.NewQueue(),
		session.WithIDGenerator(session.NewFixedGenerator("replay")),
		session.OnNotice(func(n session.Notice) {
			res.Notices = append(res.Notices, n)
		}),
	)

	err := archive.ReadFile(path, func(line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Lines++
		rec, err := journal.Decode(line)
		if errors.Is(err, journal.ErrBlankLine) {
			return nil
		}
		if err != nil {
			res.Malformed++
			return nil
		}
		r.Apply(ctx, watcher.Item{Type: watcher.ItemRecord, Record: rec, Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.Flush()
	res.Records, res.Faults = r.Stats()
	res.State = r.Latest()
	return res, nil
}

func writeReplayText(w io.Writer, res *ReplayResult) {
	for _, n := range res.Notices {
		fmt.Fprintf(w, "%s  %s\n", n.At.Format("15:04:05"), n.Text)
	}
	if len(res.Notices) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Replayed %s\n", res.File)
	fmt.Fprintf(w, "  Lines:     %d\n", res.Lines)
	fmt.Fprintf(w, "  Records:   %d\n", res.Records)
	fmt.Fprintf(w, "  Malformed: %d\n", res.Malformed)
	fmt.Fprintf(w, "  Faults:    %d\n", res.Faults)
	if s := res.State; s != nil {
		fmt.Fprintln(w)
		writeStateText(w, s)
	}
}

// writeStateText prints the headline fields of a session.
func writeStateText(w io.Writer, s *state.Session) {
	name := s.Commander.Name
	if name == "" {
		name = "(unknown)"
	}
	fmt.Fprintf(w, "Commander: %s\n", name)
	if s.Commander.Credits != nil {
		fmt.Fprintf(w, "Credits:   %d\n", *s.Commander.Credits)
	}
	if s.Commander.Ship != "" {
		fmt.Fprintf(w, "Ship:      %s\n", s.Commander.Ship)
	}
	if s.System.Name != "" {
		fmt.Fprintf(w, "System:    %s\n", s.System.Name)
	}
}
