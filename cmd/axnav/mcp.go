package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/axnav/internal/config"
	"github.com/aretw0/axnav/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the inspector as MCP tools so agents can list applications, search
and describe elements, perform actions and drive navigator sessions.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, slog.LevelInfo)
		if err != nil {
			return err
		}
		defer app.Close()

		transport := app.Config.MCP.Transport
		if v, _ := cmd.Flags().GetString("transport"); v != "" {
			transport = v
		}
		addr := app.Config.MCP.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		stopGovernor := app.StartGovernor(ctx)
		defer stopGovernor()

		srv := mcp.NewServer(app.Inspector)
		switch transport {
		case config.TransportStdio:
			app.Logger.Info("starting MCP server (stdio)")
			return srv.ServeStdio()
		case config.TransportSSE:
			if err := srv.ServeSSE(ctx, addr); err != nil {
				return err
			}
			app.Logger.Info("MCP server stopped gracefully")
			return nil
		}
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "", "Address to listen on (only for SSE)")
}
