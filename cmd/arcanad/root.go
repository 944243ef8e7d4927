package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/arcana/internal/config"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "arcanad",
		Short: "Tarot reading backend",
		Long: `arcanad serves the tarot reading API: the card catalog, random draws,
readings, journal entries and server-side reading sessions.

Configuration is read from config.yaml (or --config) and TAROT_* environment
variables, for example TAROT_DATABASE_URL and TAROT_AUTH_JWT_SECRET.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newTokenCmd(opts),
	)
	return rootCmd
}

// loadConfig loads configuration and sets up structured logging using the
// configured log level. Logs go to out, or stdout when out is nil.
func loadConfig(opts *rootOptions, out io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel, Output: out})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"ai_enabled", cfg.LLM.AIEnabled(),
		"remote_gateway", cfg.Gateway.BaseURL != "")
	return cfg, log, nil
}
