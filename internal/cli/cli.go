// Package cli implements the circuitry command-line interface.
//
// The commands load a point list, connect points in nearest-pair order and
// report on the resulting circuits. The CLI is built using cobra, reads
// settings with viper and logs with charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - solve: Print both puzzle answers for a point list
//   - connect: Show the circuit-size histogram after a connection budget
//   - render: Draw the circuits with Graphviz (SVG, PNG or DOT)
//   - step: Step through connections interactively
//   - watch: Re-solve whenever the input file changes
//   - cache: Manage the result cache
//
// # Configuration
//
// Defaults come from .circuitry.toml in the working or home directory,
// then CIRCUITRY_* environment variables, then flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/circuitry/pkg/buildinfo"
	"github.com/matzehuels/circuitry/pkg/cache"
	"github.com/matzehuels/circuitry/pkg/pipeline"
	"github.com/matzehuels/circuitry/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "circuitry"

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

	v          *viper.Viper
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		v:      newViper(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Circuitry connects junction boxes into circuits, closest pairs first",
		Long: `Circuitry reads a list of 3D points and connects them in order of
increasing straight-line distance, tracking which points share a circuit.
It answers how the circuits look after a fixed number of connections and
which connection finally joins everything into one circuit.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return readConfigFile(c.v, c.configPath)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default .circuitry.toml in . or $HOME)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.connectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.stepCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Keys are scoped by build
// version so a new release never reads entries written by an older one.
func (c *CLI) newRunner(ctx context.Context, cfg Config, noCache bool) *pipeline.Runner {
	backend := c.newCache(ctx, cfg, noCache)
	runner := pipeline.NewRunner(backend, cache.NewScopedKeyer(nil, buildinfo.Version+":"), c.Logger)
	runner.TTL = cfg.Cache.TTL
	return runner
}

// newCache opens the configured backend. An unreachable backend degrades to
// no caching; results are always recomputable.
func (c *CLI) newCache(ctx context.Context, cfg Config, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}

	switch cfg.Cache.Backend {
	case backendNone:
		return cache.NewNullCache()
	case backendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   cfg.Cache.Prefix,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "addr", cfg.Cache.RedisAddr, "err", err)
			return cache.NewNullCache()
		}
		return rc
	}

	dir, err := cacheDir(cfg)
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("file cache unavailable, caching disabled", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// config binds the named flags of cmd and decodes the merged configuration.
func (c *CLI) config(cmd *cobra.Command, flags ...string) (Config, error) {
	if err := bindFlags(c.v, cmd, flags...); err != nil {
		return Config{}, err
	}
	return loadConfig(c.v)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns cache.dir from the config, or the per-user cache
// directory (~/.cache/circuitry on Linux).
func cacheDir(cfg Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// addSolveFlags registers the flags shared by every command that runs the
// connection driver.
func addSolveFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("connections", "n", pipeline.DefaultConnections, "part one connection budget")
	cmd.Flags().String("budget", pipeline.DefaultBudget, "what the budget counts: pairs (default), joins")
	cmd.Flags().String("tracker", string(pipeline.DefaultTracker), "connectivity tracker: unionfind (default), adjacency")
}

// addCacheFlags registers the cache backend flags.
func addCacheFlags(cmd *cobra.Command, noCache, refresh *bool) {
	cmd.Flags().BoolVar(noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(refresh, "refresh", false, "recompute and overwrite cached results")
	cmd.Flags().String("cache-backend", backendFile, "cache backend: file (default), redis, none")
	cmd.Flags().String("redis-addr", "localhost:6379", "redis address (host:port) for the redis backend")
}

// solveFlagNames are the flags bound to config keys by solving commands.
var solveFlagNames = []string{"connections", "budget", "axis", "tracker", "layout", "cache-backend", "redis-addr"}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{render.FormatSVG}
	}
	formats := strings.Split(s, ",")
	for i := range formats {
		formats[i] = strings.TrimSpace(formats[i])
	}
	return formats
}
