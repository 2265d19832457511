package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/circuitry/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. It clears the
// configured backend: the cache directory, or every key under the Redis
// prefix.
func (c *CLI) cacheClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached results and renderings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd, "cache-backend", "redis-addr")
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			backend := c.newCache(ctx, cfg, false)
			defer backend.Close()

			clearer, ok := backend.(cache.Clearer)
			if _, null := backend.(cache.NullCache); null || !ok {
				printInfo("Cache is disabled")
				return nil
			}
			count, err := clearer.Clear(ctx)
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached %s", count, plural(count, "entry", "entries"))
			switch b := backend.(type) {
			case *cache.FileCache:
				printDetail("Directory: %s", b.Dir())
			case *cache.RedisCache:
				printDetail("Redis: %s (prefix %s)", cfg.Cache.RedisAddr, cfg.Cache.Prefix)
			}
			return nil
		},
	}
	cmd.Flags().String("cache-backend", backendFile, "cache backend: file (default), redis")
	cmd.Flags().String("redis-addr", "localhost:6379", "redis address (host:port)")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.v)
			if err != nil {
				return err
			}
			dir, err := cacheDir(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
