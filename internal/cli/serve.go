package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jfahler/loadmasterbot/internal/api"
	"github.com/jfahler/loadmasterbot/pkg/observability"
	"github.com/jfahler/loadmasterbot/pkg/observability/prom"
	"github.com/jfahler/loadmasterbot/pkg/report"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		top     int
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes analysis over HTTP:

  POST /v1/analyze                               analyze a mod list
  GET  /v1/items/{id}                            inspect one workshop item
  GET  /v1/submissions/{user}/{context}/last     last recorded list
  GET  /healthz                                  liveness
  GET  /metrics                                  Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			if addr == "" {
				addr = c.config().Serve.Addr
			}

			runner, closeRunner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer closeRunner()

			opts := api.Options{
				Analysis:         c.analysisOptions(),
				MaxDocumentBytes: c.config().Input.MaxBytes,
				Top:              top,
				Logger:           c.Logger,
			}
			if metrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				prom.New(reg).Register()
				defer observability.Reset()
				opts.Gatherer = reg
			}

			return api.New(runner, opts).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().IntVar(&top, "top", report.DefaultTop, "number of largest mods returned with each analysis")
	cmd.Flags().BoolVar(&metrics, "metrics", true, "expose /metrics")

	return cmd
}
