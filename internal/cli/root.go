// Package cli provides the command-line interface of the standings tool.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"championship-engine/internal/config"
	"championship-engine/internal/observability"
)

// Version information (set at build time).
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "standings",
		Short: "Championship standings tool",
		Long: `standings renders championship tables from PostgreSQL or from a
YAML fixture, and applies database migrations.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to a YAML config file")
	pf.String("postgres-dsn", "", "PostgreSQL connection string")
	pf.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newVerifyCommand())

	return rootCmd
}

// loadConfig reads configuration for cmd, letting its flags override
// the file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	// A fixture without a database runs in memory.
	flags := cmd.Flags()
	if flags.Lookup("use-memory") != nil && flags.Changed("seed") && !flags.Changed("postgres-dsn") {
		if err := flags.Set("use-memory", "true"); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.Load("", cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.LogLevel, "text", cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
