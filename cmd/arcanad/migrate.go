package main

import (
	"github.com/phrazzld/arcana/internal/platform/postgres"
	"github.com/spf13/cobra"
)

var migrateCommands = []string{"up", "down", "reset", "status", "version"}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status|version]",
		Short:     "Manage the database schema",
		Long:      "Runs a goose command against the migrations embedded in the binary.",
		ValidArgs: migrateCommands,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			db, err := postgres.Open(cmd.Context(), cfg.Database.URL, postgres.PoolConfig{
				MaxOpenConns:    1,
				MaxIdleConns:    1,
				ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Error("Error closing database connection", "error", err)
				}
			}()

			return postgres.Migrate(cmd.Context(), db, args[0], log)
		},
	}
}
