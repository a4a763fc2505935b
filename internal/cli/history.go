package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/edc/internal/config"
	"github.com/roach88/edc/internal/session"
	"github.com/roach88/edc/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Session  string
	Kind     string
	Contains string
	Limit    int
	List     bool
}

// HistoryResult is the output of history.
type HistoryResult struct {
	Session string           `json:"session"`
	Notices []session.Notice `json:"notices"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded notices",
		Long: `Show notices recorded by earlier watch sessions. Defaults to the
newest session; --session picks another, --list shows the sessions.

Examples:
  edc history
  edc history --list
  edc history --kind ScanOrganic --limit 20
  edc history --session 0196a1b2-... --contains "high value"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			return runHistory(opts, cfg, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (default newest)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only notices from this event kind")
	cmd.Flags().StringVar(&opts.Contains, "contains", "", "only notices containing this text")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "newest N notices (0 for all)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list sessions instead")

	return cmd
}

func runHistory(opts *HistoryOptions, cfg *config.Config, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := store.Open(cfg.History.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history", err)
	}
	defer st.Close()

	f := opts.formatter(cmd)

	if opts.List {
		sessions, err := st.Sessions(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		return f.Result(sessions, func(w io.Writer) {
			if len(sessions) == 0 {
				fmt.Fprintln(w, "No sessions recorded.")
				return
			}
			for _, s := range sessions {
				fmt.Fprintf(w, "%s  %s  %d notice(s)\n", s.ID, s.StartedAt.Local().Format("2006-01-02 15:04"), s.Notices)
			}
		})
	}

	id := opts.Session
	if id == "" {
		if id, err = st.LatestSession(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to find latest session", err)
		}
		if id == "" {
			return f.Result(HistoryResult{Notices: []session.Notice{}}, func(w io.Writer) {
				fmt.Fprintln(w, "No sessions recorded.")
			})
		}
	}

	notices, err := st.Notices(ctx, store.NoticeQuery{
		SessionID: id,
		Kind:      opts.Kind,
		Contains:  opts.Contains,
		Limit:     opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read notices", err)
	}

	res := HistoryResult{Session: id, Notices: notices}
	return f.Result(res, func(w io.Writer) {
		fmt.Fprintf(w, "Session %s\n", id)
		for _, n := range notices {
			fmt.Fprintf(w, "%s  %s\n", n.At.Local().Format("2006-01-02 15:04:05"), n.Text)
		}
	})
}
