package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfahler/loadmasterbot/internal/config"
	"github.com/jfahler/loadmasterbot/pkg/cache"
	"github.com/jfahler/loadmasterbot/pkg/store"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached workshop pages and stored metadata",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cachePruneCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached workshop pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			if cfg.Cache.Backend != config.CacheFile {
				printWarning("Nothing to clear for the %s cache backend", cfg.Cache.Backend)
				return nil
			}

			fc, err := cache.NewFileCache(cfg.Cache.Dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear(cmd.Context())
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory and database paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			if cfg.Cache.Dir != "" {
				fmt.Println(cfg.Cache.Dir)
			}
			if cfg.Store.Driver == config.StoreSQLite {
				fmt.Println(cfg.Store.Path)
			}
			return nil
		},
	}
}

// cachePruneCommand creates the "cache prune" subcommand.
func (c *CLI) cachePruneCommand() *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop expired pages and stale item records",
		Long: `Prune drops expired entries from the page cache, then deletes stored item
metadata and sizes that have not been refreshed within --max-age.
Submission history is kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			cfg := c.config()

			backend, err := newCache(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer backend.Close()
			if p, ok := backend.(cache.Pruner); ok {
				n, err := p.Prune(ctx)
				if err != nil {
					return err
				}
				printSuccess("Removed %d expired cache entries", n)
			}

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.Cleanup(ctx, maxAge)
			if err != nil {
				return err
			}
			printSuccess("Removed %d stale item records", n)
			printDetail("Older than %s", maxAge)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", store.DefaultCleanupAge, "age after which records are removed")

	return cmd
}
