package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/axnav/internal/cli"
	httpadapter "github.com/aretw0/axnav/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the inspector and navigator sessions as a JSON API, operation events
as Server-Sent Events on /events and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		streams := httpadapter.NewStreamManager()
		app, err := openApp(cmd, slog.LevelInfo, cli.WithHooks(streams.Hooks()))
		if err != nil {
			return err
		}
		defer app.Close()

		addr := app.Config.HTTP.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		stopGovernor := app.StartGovernor(ctx)
		defer stopGovernor()

		api := httpadapter.NewServer(app.Inspector)
		api.Streams = streams
		api.Metrics = app.Metrics.Handler()
		srv := &http.Server{Addr: addr, Handler: api.Handler()}

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("HTTP server listening", "address", addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
		}

		app.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "timeout", app.Config.HTTP.ShutdownTimeout, "err", err)
			_ = srv.Close()
		}
		if err := <-serverErrors; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		app.Logger.Info("HTTP server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides http.addr)")
}
