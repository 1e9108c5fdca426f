package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/axnav/internal/cli"
	"github.com/aretw0/axnav/internal/config"
	"github.com/aretw0/axnav/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "axnav",
	Short: "axnav inspects the accessibility tree of running applications",
	Long: `axnav browses, searches and drives the UI object tree of other applications
through the accessibility provider, without freezing when the target does.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("fixture", "", "Desktop fixture served by the provider (overrides the config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("fixture"); v != "" {
		cfg.Fixture = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	return cfg, cfg.Validate()
}

// newLogger builds the stderr logger. floor raises the level for
// interactive commands unless the user asked for one explicitly.
func newLogger(cmd *cobra.Command, cfg config.Config, floor slog.Level) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("log-level") && level < floor {
		level = floor
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), level, logging.Format(cfg.Log.Format))
	slog.SetDefault(logger)
	return logger, nil
}

// openApp loads the configuration and wires the inspector.
func openApp(cmd *cobra.Command, floor slog.Level, opts ...cli.Option) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd, cfg, floor)
	if err != nil {
		return nil, err
	}
	return cli.Build(cfg, logger, opts...)
}
