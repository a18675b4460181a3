package cli

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemalayout/pkg/layout/force"
	"github.com/matzehuels/schemalayout/pkg/pipeline"
)

// layoutFlags are the layout options shared by commands. Flags default to
// zero so that only flags the user sets override the config file.
type layoutFlags struct {
	config  string
	opts    pipeline.Options
	noAlign bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.config, "config", "c", "", "TOML config file (default: $"+envConfig+")")
	fs.StringVar(&f.opts.Format, "format", "", "schema format: json, yaml (default: from the file extension)")
	fs.StringSliceVar(&f.opts.Include, "include", nil, "only lay out these objects")
	fs.Float64Var(&f.opts.GridUnit, "grid-unit", 0, "grid cell size in pixels (default 24)")
	fs.IntVar(&f.opts.MarginUnits, "margin", 0, "routing margin around the objects in grid units (default 4)")
	fs.IntVar(&f.opts.MaxExpansions, "max-expansions", 0, "A* expansion budget per path (default 10000)")
	fs.BoolVar(&f.noAlign, "no-align", false, "do not reserve relation port rows on objects")
	fs.StringVar(&f.opts.Placer, "placer", "", "object placer: "+force.PlacerEades+" (default), "+force.PlacerGraphviz)
	fs.IntVar(&f.opts.EadesUpdates, "updates", 0, "force simulation steps for the eades placer")
	fs.Uint64Var(&f.opts.Seed, "seed", 0, "placement seed (default 42)")
	fs.StringVar(&f.opts.RedisURL, "redis", "", "redis cache URL (default: $"+envRedisURL+")")
	fs.BoolVar(&f.opts.Refresh, "refresh", false, "recompute even if cached")
}

// options loads the config file and applies the flags the user set. input
// may be empty for commands that do not read a schema.
func (f *layoutFlags) options(cmd *cobra.Command, input string, logger *log.Logger) (pipeline.Options, error) {
	var base pipeline.Options
	path := f.config
	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		loaded, err := pipeline.LoadConfig(path)
		if err != nil {
			return pipeline.Options{}, err
		}
		base = loaded
	}
	if base.RedisURL == "" {
		base.RedisURL = os.Getenv(envRedisURL)
	}

	over := f.opts
	over.Input = input
	over.Logger = logger
	if cmd.Flags().Changed("no-align") {
		aligned := !f.noAlign
		over.Aligned = &aligned
	}
	opts := base.Merge(over)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}
