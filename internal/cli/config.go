package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/edc/internal/config"
)

// ConfigOptions holds flags for the config command.
type ConfigOptions struct {
	*RootOptions
	Check bool
	Write bool
}

// ConfigResult is the output of config.
type ConfigResult struct {
	Path     string         `json:"path"`
	Migrated bool           `json:"migrated"`
	Valid    bool           `json:"valid"`
	Config   *config.Config `json:"config,omitempty"`
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or check the effective configuration",
		Long: `Show the effective configuration after defaults, the config file,
.env and environment overrides are applied.

--check only validates. --write saves the effective configuration to the
config path, which also completes a migration from an older settings file.

Exit codes:
  0 - Valid
  1 - Invalid configuration
  2 - Command error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "validate only")
	cmd.Flags().BoolVar(&opts.Write, "write", false, "save the effective configuration")

	return cmd
}

func runConfig(opts *ConfigOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		var ves config.ValidationErrors
		if errors.As(err, &ves) {
			if ferr := f.Error("E_CONFIG", "invalid configuration", ves); ferr != nil {
				return ferr
			}
			if !f.JSON() {
				for _, ve := range ves {
					fmt.Fprintf(f.Writer, "  %s\n", ve.Error())
				}
			}
			return NewExitError(ExitFailure, "invalid configuration")
		}
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if opts.Write {
		if err := cfg.Save(opts.ConfigPath); err != nil {
			return WrapExitError(ExitCommandError, "failed to write config", err)
		}
		f.VerboseLog("wrote %s", opts.ConfigPath)
	}

	res := ConfigResult{Path: cfg.Path, Migrated: cfg.Migrated, Valid: true}
	if !opts.Check {
		res.Config = cfg
	}
	return f.Result(res, func(w io.Writer) {
		src := res.Path
		if src == "" {
			src = "(defaults)"
		}
		fmt.Fprintf(w, "# source: %s\n", src)
		if res.Migrated {
			fmt.Fprintln(w, "# migrated from an older schema version; run with --write to save")
		}
		if opts.Check {
			fmt.Fprintln(w, "Configuration is valid.")
			return
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		w.Write(out)
	})
}
