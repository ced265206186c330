package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"championship-engine/internal/storage/migrations"
	"championship-engine/internal/storage/postgres"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(cmd.Context(), cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrations.RunPostgresMigrations(cmd.Context(), pool.Pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			version, err := migrations.PostgresVersion(cmd.Context(), pool.Pool)
			if err != nil {
				return err
			}

			logger.Info("migrations_applied", "version", version)
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}
