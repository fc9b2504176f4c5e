package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsguard/internal/metrics"
	"github.com/ppiankov/newsguard/internal/pipeline"
	"github.com/ppiankov/newsguard/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyze API over HTTP",
	Long: `Serve starts an HTTP server sharing one pipeline across requests.

Endpoints:
  POST /v1/analyze   {"text": "..."}  -> analysis JSON (?format=md for Markdown)
  GET  /healthz
  GET  /metrics      Prometheus metrics

Example:
  newsguard serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		m := metrics.New()
		p, err := pipeline.Build(ctx, cfg, m)
		if err != nil {
			return err
		}

		return server.New(cfg.Server, p,
			server.WithMetrics(m),
			server.WithReportFooter(cfg.Output.IncludeFooter),
		).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
