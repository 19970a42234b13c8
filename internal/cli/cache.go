package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/canopyviz/canopy/pkg/cache"
	"github.com/canopyviz/canopy/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached layouts and frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Cache.Backend != config.CacheBackendFile {
				return fmt.Errorf("cache clear only supports the file backend, config uses %q", c.cfg.Cache.Backend)
			}
			dir := c.fileCacheDir()

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return err
			}

			printSuccess("Cleared cache")
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(c.fileCacheDir())
			return nil
		},
	}
}

// fileCacheDir resolves the file cache directory from config, falling
// back to the XDG location.
func (c *CLI) fileCacheDir() string {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir
	}
	dir, err := cacheDir()
	if err != nil {
		return "."
	}
	return dir
}
