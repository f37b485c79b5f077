package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jfahler/loadmasterbot/internal/config"
	"github.com/jfahler/loadmasterbot/pkg/buildinfo"
	"github.com/jfahler/loadmasterbot/pkg/cache"
	"github.com/jfahler/loadmasterbot/pkg/catalog"
	"github.com/jfahler/loadmasterbot/pkg/httputil"
	"github.com/jfahler/loadmasterbot/pkg/integrations"
	"github.com/jfahler/loadmasterbot/pkg/integrations/workshop"
	"github.com/jfahler/loadmasterbot/pkg/pipeline"
	"github.com/jfahler/loadmasterbot/pkg/store"
	"github.com/jfahler/loadmasterbot/pkg/store/mongo"
	"github.com/jfahler/loadmasterbot/pkg/store/sqlite"
)

// =============================================================================
// Constants
// =============================================================================

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

	configFile string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "loadmaster",
		Short: "Loadmaster checks Arma 3 workshop mod lists",
		Long: `Loadmaster reads an exported Arma 3 launcher mod list, looks every item up on
the Steam Workshop and reports missing dependencies, required expansions,
download size and what changed since your last upload.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/loadmaster/config.toml)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	if c.cfg != nil {
		return nil
	}
	cfg, path, err := config.Load(config.LoadOptions{File: c.configFile})
	if err != nil {
		return err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	c.cfg = cfg
	return nil
}

// config returns the loaded configuration, falling back to defaults when
// a command runs without the root pre-run (tests).
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		if err := c.loadConfig(); err != nil {
			c.Logger.Warn("using default configuration", "err", err)
			d := config.Default()
			c.cfg = &d
		}
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner wires the configured cache, store and workshop client into a
// pipeline runner. The returned func releases all of them.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, func(), error) {
	cfg := c.config()

	backend, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	var keyer cache.Keyer
	if cfg.Cache.Backend == config.CacheRedis && cfg.Redis.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Redis.Prefix)
	}

	client := workshop.NewClient(backend, workshop.Options{
		BaseURL: cfg.Workshop.BaseURL,
		TTL:     cfg.Cache.TTL,
		HTTP: integrations.HTTPOptions{
			Timeout: cfg.Fetch.Timeout,
			Rate:    cfg.Fetch.Rate,
			Burst:   cfg.Fetch.Burst,
		},
		Retry: &httputil.Policy{
			Attempts: cfg.Fetch.Retries,
			Delay:    httputil.DefaultPolicy.Delay,
			MaxDelay: httputil.DefaultPolicy.MaxDelay,
		},
		Catalog: cat,
		Sizes:   st,
		Keyer:   keyer,
		Logger:  c.Logger,
	})

	runner := pipeline.NewRunner(client, st, c.Logger)
	runner.Catalog = cat
	runner.BaseURL = client.BaseURL()

	closeAll := func() {
		if err := runner.Close(); err != nil {
			c.Logger.Warn("close store", "err", err)
		}
		backend.Close()
	}
	return runner, closeAll, nil
}

// analysisOptions returns the configured defaults for one analysis.
func (c *CLI) analysisOptions() pipeline.Options {
	cfg := c.config()
	return pipeline.Options{
		Rule:        catalog.Rule(cfg.Detection.Rule),
		Concurrency: cfg.Fetch.Concurrency,
		Timeout:     cfg.Analysis.Timeout,
	}
}

func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		return cache.NewMemoryCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case config.CacheNone:
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Dir == "" {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(cfg.Cache.Dir)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreMongo:
		return mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	}
	return sqlite.Open(ctx, cfg.Store.Path)
}
