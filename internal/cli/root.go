package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/edc/internal/config"
	"github.com/roach88/edc/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// closeLog releases the log file opened by setup.
	closeLog func() error
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the edc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "edc",
		Short: "edc - Elite Dangerous companion",
		Long: `Watches the game's journal directory, reconstructs commander, ship,
system and exploration state from the event stream, and reports what is
worth knowing: high-value bodies, exobiology progress, bounties and more.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.closeLog != nil {
				return opts.closeLog()
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", config.DefaultPath(), "config file")

	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewLookupCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// setup loads the config and installs logging on the command's stderr.
func (o *RootOptions) setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	_, closeLog, err := logging.Setup(cfg.Log, cmd.ErrOrStderr(), o.Verbose)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	o.closeLog = closeLog
	return cfg, nil
}

// formatter returns an OutputFormatter bound to cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
