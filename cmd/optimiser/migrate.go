package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/postgres"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres migrations to DATABASE_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			if err := postgres.Migrate(cmd.Context(), e.cfg.DatabaseURL); err != nil {
				return err
			}
			e.logger.Info("migrations applied")
			return nil
		},
	}
}
