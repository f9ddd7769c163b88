package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeportal/internal/api"
	"github.com/rustyeddy/tradeportal/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	Long: `Serve the portal over HTTP until interrupted. The background probe keeps
retrying the backend while offline.

Endpoints live under /api/v1; /healthz, /readyz and /metrics sit at the root.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		addr := serveAddr
		if addr == "" {
			addr = a.Config.Server.Addr
		}
		engine := api.NewEngine(api.Options{
			Portal:   a.Portal,
			Gatherer: a.Registry,
			Logger:   a.Logger,
			Debug:    a.Config.Log.Level == "debug",
		})
		return api.Serve(ctx, addr, engine, a.Logger)
	})
}
