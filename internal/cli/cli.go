// Package cli implements the comboom command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/comboom/internal/config"
	"github.com/matzehuels/comboom/pkg/buildinfo"
	"github.com/matzehuels/comboom/pkg/cache"
	"github.com/matzehuels/comboom/pkg/pipeline"
	"github.com/matzehuels/comboom/pkg/render"
	"github.com/matzehuels/comboom/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "comboom"

	// storeTimeout bounds connecting to a remote snapshot store.
	storeTimeout = 10 * time.Second
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

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. An explicit debug level sticks
// even when a config file asks for less.
func (c *CLI) SetLogLevel(level log.Level) {
	c.verbose = level == log.DebugLevel
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Comboom settles members and clusters into a live picture",
		Long: `Comboom lays out members that belong to overlapping clusters. Members of the
same cluster are pulled together, clusters push each other apart, and the
picture settles on its own. Drag members around while it runs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/comboom/config.toml)")

	// Register all subcommands
	root.AddCommand(c.runCommand())
	root.AddCommand(c.settleCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.snapshotsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config
// =============================================================================

// loadConfig reads the config file and applies its log level.
func (c *CLI) loadConfig() (config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config: %w", err)
	}
	if !c.verbose {
		c.Logger.SetLevel(cfg.Log.ParseLevel())
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return cfg, path, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Cache, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, newKeyer(cfg), c.Logger), nil
}

// newKeyer scopes cache keys when the config sets a prefix.
func newKeyer(cfg config.Cache) cache.Keyer {
	if cfg.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Prefix)
}

// newCache picks the cache backend: none, Redis, or files under cacheDir.
func (c *CLI) newCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		c.Logger.Debug("using redis cache")
		return cache.Instrument(rc), nil
	}

	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return cache.Instrument(fc), nil
}

// newStore opens the snapshot store: MongoDB when a URI is configured,
// otherwise a directory.
func (c *CLI) newStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	if cfg.MongoURI != "" {
		st, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
			Timeout:    storeTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connect snapshot store: %w", err)
		}
		return st, nil
	}

	dir := cfg.Dir
	if dir == "" {
		d, err := dataDir()
		if err != nil {
			return nil, fmt.Errorf("get data dir: %w", err)
		}
		dir = filepath.Join(d, "snapshots")
	}
	return store.NewDirStore(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/comboom/).
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

// dataDir returns the data directory using XDG standard (~/.local/share/comboom/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// formatDOT is accepted next to the render formats and writes Graphviz source.
const formatDOT = "dot"

// parseFormats parses a comma-separated format string. The boolean reports
// whether DOT output was requested as well.
func parseFormats(s string) ([]render.Format, bool, error) {
	if strings.TrimSpace(s) == "" {
		return []render.Format{render.FormatSVG}, false, nil
	}
	var (
		formats []render.Format
		dot     bool
	)
	for _, part := range strings.Split(s, ",") {
		if strings.EqualFold(strings.TrimSpace(part), formatDOT) {
			dot = true
			continue
		}
		f, err := render.ParseFormat(part)
		if err != nil {
			return nil, false, err
		}
		formats = append(formats, f)
	}
	return formats, dot, nil
}

// outputPath derives the path of one artifact. A single output with an
// explicit path uses it as is; otherwise the extension is replaced.
func outputPath(input, output, ext string, single bool) string {
	if output != "" && single {
		return output
	}
	base := output
	if base == "" {
		base = input
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, ".snapshot")
	return base + "." + ext
}
