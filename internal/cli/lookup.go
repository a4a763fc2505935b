package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/edc/internal/refdata"
)

// LookupOptions holds flags shared by the lookup subcommands.
type LookupOptions struct {
	*RootOptions
	Terraformable bool
	Address       int64
	Material      bool
}

// NewLookupCommand creates the lookup command and its subcommands.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Query the reference documents",
		Long: `Query the operator-maintained reference documents in the data
directory: planet values, organism values, points of interest, farming
locations and the item catalog.

Exit codes:
  0 - Found
  1 - Nothing matched
  2 - Command error`,
	}

	planet := &cobra.Command{
		Use:     "planet <class>",
		Short:   "Estimated values for a planet class",
		Example: `  edc lookup planet "Earthlike body" --terraformable`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := opts.tables(cmd)
			if err != nil {
				return err
			}
			return lookupPlanet(opts, set, args[0], cmd)
		},
	}
	planet.Flags().BoolVar(&opts.Terraformable, "terraformable", false, "terraformable variant")

	organism := &cobra.Command{
		Use:     "organism <species>",
		Short:   "Base value of an exobiology species",
		Example: `  edc lookup organism "Bacterium Aurasus"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := opts.tables(cmd)
			if err != nil {
				return err
			}
			return lookupOrganism(opts, set, strings.Join(args, " "), cmd)
		},
	}

	pois := &cobra.Command{
		Use:     "pois <system>",
		Short:   "Points of interest known for a system",
		Example: `  edc lookup pois Sol --address 10477373803`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := opts.tables(cmd)
			if err != nil {
				return err
			}
			return lookupPOIs(opts, set, strings.Join(args, " "), cmd)
		},
	}
	pois.Flags().Int64Var(&opts.Address, "address", 0, "system address")

	farming := &cobra.Command{
		Use:   "farming <system|material>",
		Short: "Farming sites in a system or for a material",
		Example: `  edc lookup farming "HIP 36601"
  edc lookup farming --material Polonium`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := opts.tables(cmd)
			if err != nil {
				return err
			}
			return lookupFarming(opts, set, strings.Join(args, " "), cmd)
		},
	}
	farming.Flags().BoolVar(&opts.Material, "material", false, "treat the argument as a material name")

	item := &cobra.Command{
		Use:     "item <name>",
		Short:   "Item catalog entry",
		Example: `  edc lookup item "Suit Schematic"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := opts.tables(cmd)
			if err != nil {
				return err
			}
			return lookupItem(opts, set, strings.Join(args, " "), cmd)
		},
	}

	cmd.AddCommand(planet, organism, pois, farming, item)
	return cmd
}

// tables loads config and binds the reference set.
func (o *LookupOptions) tables(cmd *cobra.Command) (*refdata.Set, error) {
	cfg, err := o.setup(cmd)
	if err != nil {
		return nil, err
	}
	return refdata.Open(cfg.DataDir), nil
}

// notFound reports an empty lookup, explaining a table that failed to
// load rather than claiming there is no match.
func notFound(what, file string, loaded bool, loadErr error) error {
	if loadErr != nil {
		return WrapExitError(ExitCommandError, file+" is unusable", loadErr)
	}
	if !loaded {
		return NewExitError(ExitFailure, fmt.Sprintf("no %s: %s is not loaded", what, file))
	}
	return NewExitError(ExitFailure, "no "+what)
}

// PlanetResult is the output of lookup planet.
type PlanetResult struct {
	PlanetType    string           `json:"planet_type"`
	Terraformable bool             `json:"terraformable"`
	Values        map[string]int64 `json:"values"`
}

var stageNames = []struct {
	stage refdata.Stage
	name  string
}{
	{refdata.StageFSS, "fss"},
	{refdata.StageFSSDSS, "fss_dss"},
	{refdata.StageFSSFD, "fss_fd"},
	{refdata.StageFSSFDDSS, "fss_fd_dss"},
}

func lookupPlanet(opts *LookupOptions, set *refdata.Set, class string, cmd *cobra.Command) error {
	row, ok := set.Planets.Row(class, opts.Terraformable)
	if !ok {
		loaded, err := set.Planets.Status()
		return notFound("planet value row for "+class, refdata.PlanetValuesFile, loaded, err)
	}

	res := PlanetResult{PlanetType: row.PlanetType, Terraformable: row.Terraformable, Values: map[string]int64{}}
	for _, s := range stageNames {
		if v, ok := row.Value(s.stage); ok {
			res.Values[s.name] = v
		}
	}

	return opts.formatter(cmd).Result(res, func(w io.Writer) {
		kind := res.PlanetType
		if res.Terraformable {
			kind += " (terraformable)"
		}
		fmt.Fprintln(w, kind)
		for _, s := range stageNames {
			if v, ok := res.Values[s.name]; ok {
				fmt.Fprintf(w, "  %-11s %s cr\n", s.name, groupDigits(v))
			}
		}
	})
}

func lookupOrganism(opts *LookupOptions, set *refdata.Set, name string, cmd *cobra.Command) error {
	org, ok := set.Organisms.Lookup(name)
	if !ok {
		loaded, err := set.Organisms.Status()
		return notFound("organism "+name, refdata.OrganismValuesFile, loaded, err)
	}
	return opts.formatter(cmd).Result(org, func(w io.Writer) {
		fmt.Fprintf(w, "%s (%s): %s cr\n", org.Species, org.Genus, groupDigits(org.BaseValue))
	})
}

func lookupPOIs(opts *LookupOptions, set *refdata.Set, system string, cmd *cobra.Command) error {
	pois := set.POIs.Lookup(system, opts.Address)
	if len(pois) == 0 {
		loaded, err := set.POIs.Status()
		return notFound("points of interest in "+system, refdata.POIsFile, loaded, err)
	}
	return opts.formatter(cmd).Result(pois, func(w io.Writer) {
		for _, p := range pois {
			line := p.Title
			if p.Category != "" {
				line = "[" + p.Category + "] " + line
			}
			if p.Body != "" {
				line += " (" + p.Body + ")"
			}
			fmt.Fprintln(w, line)
			if p.Note != "" {
				fmt.Fprintf(w, "  %s\n", p.Note)
			}
		}
	})
}

func lookupFarming(opts *LookupOptions, set *refdata.Set, arg string, cmd *cobra.Command) error {
	var sites []refdata.FarmSite
	if opts.Material {
		sites = set.Farming.ForMaterial(arg)
	} else {
		sites = set.Farming.ForSystem(arg)
	}
	if len(sites) == 0 {
		loaded, err := set.Farming.Status()
		return notFound("farming sites for "+arg, refdata.FarmingFile, loaded, err)
	}
	return opts.formatter(cmd).Result(sites, func(w io.Writer) {
		for _, s := range sites {
			where := s.System
			if s.Body != "" {
				where += " / " + s.Body
			}
			fmt.Fprintf(w, "%s: %s [%s]\n", s.Name, where, s.Domain)
			if s.Method != "" {
				fmt.Fprintf(w, "  %s\n", s.Method)
			}
			if len(s.KeyMaterials) > 0 {
				fmt.Fprintf(w, "  Materials: %s\n", strings.Join(s.KeyMaterials, ", "))
			}
		}
	})
}

func lookupItem(opts *LookupOptions, set *refdata.Set, name string, cmd *cobra.Command) error {
	it, ok := set.Catalog.Get(name)
	if !ok {
		loaded, err := set.Catalog.Status()
		return notFound("catalog item "+name, refdata.CatalogFile, loaded, err)
	}
	return opts.formatter(cmd).Result(it, func(w io.Writer) {
		fmt.Fprintln(w, it.Name)
		if label := set.Catalog.SubtypeLabel(it.Name); label != "" {
			fmt.Fprintf(w, "  %s\n", label)
		}
		if it.Grade != "" {
			fmt.Fprintf(w, "  Grade: %s\n", it.Grade)
		}
		for _, loc := range it.Locations {
			fmt.Fprintf(w, "  - %s\n", loc)
		}
	})
}

// groupDigits renders n with English thousands separators.
func groupDigits(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
