package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/srujana-egov/pgr-on-digit3.0/internal/config"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/postgres"
)

// migrationCommands are the goose commands exposed by "migrate".
var migrationCommands = []string{"up", "down", "reset", "status", "version"}

// handleMigrations connects to the database and runs one migration command.
func handleMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close database connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := postgres.Migrate(ctx, db, command, logger); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
