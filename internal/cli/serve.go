package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vnquery/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question pipeline over HTTP",
		Long: `Serve starts an HTTP server exposing the question pipeline:

  POST /ask            answer a free-text question
  GET  /price/history  raw candles for one symbol
  GET  /health         liveness and LLM readiness`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			srv := server.New(app.Agent, app.Service, server.Config{
				Addr:            addr,
				ReadTimeout:     app.Config.Server.ReadTimeout,
				WriteTimeout:    app.Config.Server.WriteTimeout,
				ShutdownTimeout: app.Config.Server.ShutdownTimeout,
			}, app.Logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
