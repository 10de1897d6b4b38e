package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pulseaid/internal/platform/postgres"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			ctx := cmd.Context()
			db, err := postgres.Open(ctx, opts.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(ctx, db)
			if err != nil {
				return err
			}
			opts.logger.InfoContext(ctx, "migrations applied", "count", len(applied), "versions", applied)
			return nil
		},
	}
}
