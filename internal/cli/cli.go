package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/shipyard/pkg/buildinfo"
	"github.com/matzehuels/shipyard/pkg/cache"
	"github.com/matzehuels/shipyard/pkg/config"
	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/pipeline"
	"github.com/matzehuels/shipyard/pkg/sde"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and completions.
const appName = "shipyard"

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

	// ConfigPath is the --config flag; empty means shipyard.toml in the
	// working directory, if present.
	ConfigPath string

	cfg config.Config
}

// New creates a new CLI instance with a default logger and the built-in
// configuration.
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

// Config returns the active configuration.
func (c *CLI) Config() config.Config {
	return c.cfg
}

// RootCommand creates the root cobra command with all subcommands registered.
// Running it without a subcommand extracts with the configured defaults.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Shipyard extracts ship manufacturing data from the EVE SDE",
		Long: `Shipyard reads the EVE Online Static Data Export and writes the lookup
files a build planner needs: every ship, everything needed to build it
(recursively), and the recipe for each of them.

Without a subcommand it runs "extract" with the configured defaults.`,
		Version:      buildinfo.Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtract(cmd.Context(), extractOptions{})
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.ConfigPath, "config", "c", "", "config file (default: ./"+config.FileName+" if present)")

	root.AddCommand(c.extractCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.publishCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config and attaches the logger to the command context.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if cfg.Source != "" {
		c.Logger.Debug("loaded config", "path", cfg.Source)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner opens the SDE at dbPath and creates a pipeline runner with the
// configured cache. The caller closes both the runner and the store.
func (c *CLI) newRunner(ctx context.Context, dbPath string, noCache bool) (*pipeline.Runner, *sde.Store, error) {
	store, err := sde.Open(ctx, dbPath)
	if err != nil {
		return nil, nil, err
	}
	ch, keyer, err := newCache(ctx, c.cfg.Cache, noCache)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return pipeline.NewRunner(store, ch, keyer, loggerFromContext(ctx)), store, nil
}

// newCache builds the extract cache for cfg. A file cache that cannot be
// created degrades to no caching; an unreachable Redis is an error.
func newCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, cache.Keyer, error) {
	if noCache {
		return cache.NewNullCache(), nil, nil
	}
	switch cfg.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to redis cache")
		}
		return rc, cache.NewScopedKeyer(nil, cfg.Prefix), nil
	case config.CacheNone:
		return cache.NewNullCache(), nil, nil
	default:
		fc, err := cache.NewFileCache(cfg.Dir)
		if err != nil {
			loggerFromContext(ctx).Warn("cache disabled", "dir", cfg.Dir, "err", err)
			return cache.NewNullCache(), nil, nil
		}
		return fc, nil, nil
	}
}

// =============================================================================
// Data Helpers
// =============================================================================

// loadExport reads the lookup files from dir, defaulting to the configured
// output directory.
func (c *CLI) loadExport(dir string) (*export.Export, error) {
	if dir == "" {
		dir = c.cfg.Output
	}
	e, err := export.Read(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no extract in %s (run `%s extract` first)", dir, appName)
	}
	return e, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
