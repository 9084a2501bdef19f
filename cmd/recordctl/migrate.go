package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recordapi/internal/config"
	"recordapi/internal/database"
	"recordapi/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the records table for the postgres backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()
			logger := logging.New(cfg.LogLevel)

			db, err := database.OpenRecordStore(ctx, cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			return db.Close()
		},
	}
}
