package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/huangsam/repopulse/internal/analytics"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/web"
)

// serveCmd runs the web front end.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web front end",
	Long: `Serve the single-page front end: a question form, the rendered explanation and
a chart of the daily commit series of the repository asked about.

Endpoints:
  GET  /                 the page
  POST /analyze          submit the form
  GET  /chart            standalone chart (owner, repo, start, end, days)
  GET  /api/series       daily series as JSON (same parameters)
  POST /prefs/dark-mode  toggle and store the theme
  GET  /healthz          liveness check
  GET  /metrics          Prometheus metrics

Examples:
  # Serve on the default address
  repopulse serve

  # Read commit data from GitHub and listen on all interfaces
  repopulse serve --source github --listen 0.0.0.0:8080`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func runServer(ctx context.Context) error {
	client := analytics.NewClient(cfg.AnalyticsURL, cfg.Timeout, nil)
	server, err := web.NewServer(cfg, storeManager, client, contract.Logger())
	if err != nil {
		return err
	}
	return server.Run(ctx)
}
