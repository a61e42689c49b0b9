// Package cli implements the bblocks command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bblocks/bblocks/internal/config"
	"github.com/bblocks/bblocks/pkg/buildinfo"
	"github.com/bblocks/bblocks/pkg/cache"
	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/fetch"
	"github.com/bblocks/bblocks/pkg/register"
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

	cfg         config.Config
	configPath  string // --config
	registerURL string // --register
	verbose     bool
	noCache     bool
	refresh     bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Defaults(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bblocks",
		Short: "bblocks resolves building block registers and uplifts data to RDF",
		Long: `bblocks loads building block registers and their imports, inspects items,
converts JSON/YAML instance data to RDF through each item's semantic uplift
steps, and validates data against the published schemas and SHACL shapes.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default: ~/.config/bblocks/config.toml)")
	flags.StringVarP(&c.registerURL, "register", "r", "", "register URL or file (default: from config)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the HTTP response cache")
	flags.BoolVar(&c.refresh, "refresh", false, "ignore cached responses and refetch")

	// Register all subcommands
	root.AddCommand(c.registerCommand())
	root.AddCommand(c.itemCommand())
	root.AddCommand(c.upliftCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and applies flag overrides.
func (c *CLI) setup(*cobra.Command, []string) error {
	cfg, path, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	if c.registerURL != "" {
		cfg.Register = c.registerURL
	}
	if c.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
	c.cfg = cfg

	level := cfg.Level()
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	return nil
}

// =============================================================================
// Register Loading
// =============================================================================

// session is a loaded register together with the cache backing its fetcher.
type session struct {
	reg   *register.Register
	cache cache.Cache
}

func (s *session) Close() error { return s.cache.Close() }

// openCache opens the configured response cache.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	settings, err := c.cfg.Cache.Settings()
	if err != nil {
		return nil, err
	}
	cc, err := cache.Open(ctx, settings)
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeConfiguration, err, "open %s cache", settings.Backend)
	}
	return cc, nil
}

// fetcher builds the fetch client used by every command.
func (c *CLI) fetcher(cc cache.Cache) *fetch.Client {
	return fetch.NewClient(fetch.Options{
		Cache:    cc,
		CacheTTL: c.cfg.Cache.TTL.Duration,
		Refresh:  c.refresh,
		Logger:   c.Logger,
	})
}

// open loads the configured register and its imports.
func (c *CLI) open(ctx context.Context, skipImports bool) (*session, error) {
	cc, err := c.openCache(ctx)
	if err != nil {
		return nil, err
	}

	spin := c.spinner(ctx, "Loading register...")
	prog := newProgress(c.Logger)
	reg, err := register.Load(ctx, c.cfg.Register, register.Options{
		Fetcher:     c.fetcher(cc),
		SkipImports: skipImports,
		Logger:      c.Logger,
	})
	spin.Stop()
	if err != nil {
		_ = cc.Close()
		return nil, err
	}
	prog.done("Loaded " + c.cfg.Register)
	return &session{reg: reg, cache: cc}, nil
}

// spinner starts a progress spinner unless debug logs would interleave with it.
func (c *CLI) spinner(ctx context.Context, msg string) indicator {
	if c.Logger.GetLevel() <= LogDebug {
		return noSpinner{}
	}
	s := newSpinnerWithContext(ctx, msg)
	s.Start()
	return s
}

type indicator interface{ Stop() }

type noSpinner struct{}

func (noSpinner) Stop() {}

// lookup returns the item with the given identifier in reg or its imports.
func lookup(reg *register.Register, id string) (*register.Summary, error) {
	if err := bberrors.ValidateIdentifier(id); err != nil {
		return nil, err
	}
	s := reg.Summary(id)
	if s == nil {
		return nil, bberrors.New(bberrors.ErrCodeNotFound, "unknown item %q", id)
	}
	return s, nil
}
