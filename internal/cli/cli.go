// Package cli implements the schemalayout command-line interface.
//
// # Commands
//
//   - layout: place objects and route links for a schema file
//   - focus: radial layout around one object
//   - worker: serve the worker protocol as JSON lines on stdin/stdout
//   - serve: serve the worker protocol over HTTP
//   - cache: inspect and prune the local layout cache
//   - version: print build information
//
// Options come from an optional TOML file (--config or SCHEMALAYOUT_CONFIG),
// overridden by flags. The worker and server read the cache backend and
// listen address from SCHEMALAYOUT_* environment variables.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemalayout/pkg/buildinfo"
	"github.com/matzehuels/schemalayout/pkg/cache"
	"github.com/matzehuels/schemalayout/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "schemalayout"

// Environment variables read by the CLI.
const (
	envConfig      = "SCHEMALAYOUT_CONFIG"
	envAddr        = "SCHEMALAYOUT_ADDR"
	envRedisURL    = "SCHEMALAYOUT_REDIS_URL"
	envCacheDir    = "SCHEMALAYOUT_CACHE_DIR"
	envCachePrefix = "SCHEMALAYOUT_CACHE_PREFIX"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out io.Writer
}

// New creates a CLI that logs to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Schemalayout lays out object schemas as routed diagrams",
		Long:         `Schemalayout places the objects of a schema on a grid and routes inheritance and relation links between them as orthogonal paths.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.focusCommand())
	root.AddCommand(c.workerCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags selects the cache backend of a command.
type cacheFlags struct {
	noCache bool
	dir     string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&f.dir, "cache-dir", "", "cache directory (default: user cache dir, or $"+envCacheDir+")")
}

// newRunner creates a pipeline runner. A Redis URL in opts selects the Redis
// backend; otherwise results are cached on disk.
func (c *CLI) newRunner(ctx context.Context, opts pipeline.Options, flags cacheFlags) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, opts, flags)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if prefix := os.Getenv(envCachePrefix); prefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), prefix)
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, opts pipeline.Options, flags cacheFlags) (cache.Cache, error) {
	if flags.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.RedisURL != "" {
		c.Logger.Debug("using redis cache")
		return cache.NewRedisCache(ctx, opts.RedisURL)
	}
	dir, err := cacheDir(flags.dir)
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir resolves the file cache directory: flag, then environment, then
// the per-user default.
func cacheDir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if dir := os.Getenv(envCacheDir); dir != "" {
		return dir, nil
	}
	return cache.DefaultDir()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
