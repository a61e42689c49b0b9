package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bblocks/bblocks/internal/server"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr      string
	preload   int
	noMetrics bool
}

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the register over HTTP",
		Long: `Serve the loaded register over HTTP.

Routes:
  GET  /healthz, /register, /items, /items/{id}
  GET  /items/{id}/schema, /items/{id}/context
  POST /items/{id}/uplift, /items/{id}/validate
  GET  /graph/{imports|dependencies}, /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = opts.addr
			}
			if cmd.Flags().Changed("preload") {
				c.cfg.Server.Preload = opts.preload
			}
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default: from config, :8080)")
	cmd.Flags().IntVar(&opts.preload, "preload", 0, "fetch full records with this many workers before serving")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "disable /metrics")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()
	cfg := c.cfg.Server

	// Hooks go in before the register loads so startup fetches are counted.
	var metrics *server.Metrics
	if !opts.noMetrics {
		metrics = server.NewMetrics()
		metrics.Install()
	}

	sess, err := c.open(ctx, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	if cfg.Preload > 0 {
		spin := c.spinner(ctx, fmt.Sprintf("Fetching %d full records...", len(sess.reg.Items())))
		prog := newProgress(c.Logger)
		blocks, err := sess.reg.FetchAll(ctx, cfg.Preload)
		spin.Stop()
		if err != nil {
			c.Logger.Warn("preload failed; records will be fetched on demand", "err", err)
		} else {
			prog.done(fmt.Sprintf("Fetched %d full records", len(blocks)))
		}
	}

	srv := server.New(sess.reg, server.Options{
		Logger:       c.Logger,
		Pipeline:     c.pipeline(),
		Metrics:      metrics,
		MaxBodyBytes: cfg.MaxBodyBytes,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
	})
	printInfo(cmd.ErrOrStderr(), "Serving %s on %s", sess.reg.URL, cfg.Addr)
	return srv.ListenAndServe(ctx, cfg.Addr)
}
