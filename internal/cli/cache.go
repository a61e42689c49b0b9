package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bblocks/bblocks/pkg/cache"
	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the HTTP response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached HTTP responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.ErrOrStderr()
			switch c.cfg.Cache.Backend {
			case cache.BackendNone, cache.BackendMemory:
				printInfo(w, "The %s cache keeps nothing between runs", c.cfg.Cache.Backend)
				return nil
			case cache.BackendRedis, cache.BackendMongo:
				printWarning(w, "Entries in the %s cache expire after %s", c.cfg.Cache.Backend, c.cfg.Cache.TTL)
				return bberrors.New(bberrors.ErrCodeUnsupported, "cache clear supports the file backend only")
			}

			settings, err := c.cfg.Cache.Settings()
			if err != nil {
				return err
			}
			fc, err := cache.NewFileCache(settings.Dir)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo(w, "Cache is empty")
				return nil
			}
			printSuccess(w, "Cleared %d cached entries", count)
			printDetail(w, "Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := c.cfg.Cache.Settings()
			if err != nil {
				return err
			}
			if settings.Dir == "" {
				return bberrors.New(bberrors.ErrCodeConfiguration, "the %s cache has no directory", c.cfg.Cache.Backend)
			}
			fmt.Fprintln(cmd.OutOrStdout(), settings.Dir)
			return nil
		},
	}
}
