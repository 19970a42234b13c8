// Package cli implements the canopy command-line interface.
//
// This package provides commands for generating sample data, rebuilding
// trees from flat records, computing layouts, exporting visualizations,
// browsing trees interactively, and serving the HTTP API. The CLI is
// built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - gen: Produce a deterministic sample record file
//   - build: Reconstruct the tree and write it as JSON
//   - layout: Compute grid positions for every node
//   - export: Render the tree as SVG, PNG, DOT, or JSON
//   - view: Browse the tree interactively in the terminal
//   - serve: Run the HTTP API server
//   - cache: Manage the artifact cache
//   - snapshot: Manage saved view snapshots
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/canopyviz/canopy/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/canopyviz/canopy/pkg/cache"
	"github.com/canopyviz/canopy/pkg/config"
	"github.com/canopyviz/canopy/pkg/pipeline"
	"github.com/canopyviz/canopy/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "canopy"

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

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
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
		Short:        "Canopy rebuilds and explores large node hierarchies",
		Long:         `Canopy reconstructs a tree from flat parent-chain records, lays it out on a fixed grid, and materializes the visible portion in cancellable batches for smooth exploration of very large hierarchies.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(versionTemplate())
	root.PersistentFlags().StringVar(&c.configPath, "config", defaultConfigPath(), "path to the config file")

	// Register all subcommands
	root.AddCommand(c.genCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	artifactCache, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(artifactCache, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache || c.cfg.Cache.Backend == config.CacheBackendNone {
		return cache.NewNullCache(), nil
	}
	if c.cfg.Cache.Backend == config.CacheBackendRedis {
		return cache.NewRedisCache(ctx, c.cfg.Cache.RedisAddr)
	}
	dir := c.cfg.Cache.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// newStore creates the snapshot store per config.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	if c.cfg.Store.Backend == config.StoreBackendMongo {
		return store.NewMongoStore(ctx, c.cfg.Store.MongoURI, c.cfg.Store.MongoDB)
	}
	return store.NewFileStore(c.cfg.Store.Dir)
}

// dataPath resolves the record file path: the flag wins over config.
func (c *CLI) dataPath(flag string) string {
	if flag != "" {
		return flag
	}
	return c.cfg.Data
}

// cacheTTL returns the configured cache entry lifetime.
func (c *CLI) cacheTTL() time.Duration {
	return time.Duration(c.cfg.Cache.TTLSeconds) * time.Second
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/canopy/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultConfigPath returns the config file path, preferring a local
// canopy.toml over the XDG config location.
func defaultConfigPath() string {
	if _, err := os.Stat("canopy.toml"); err == nil {
		return "canopy.toml"
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "canopy.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "canopy.toml"
	}
	return filepath.Join(home, ".config", appName, "canopy.toml")
}
