package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file if needed, then the history database, and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.store.Path()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", path)
		}
	}

	config, err := r.store.Load()
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		config = shared.DefaultConfig()
	}

	dbPath := r.store.Resolve(config.HistoryPath)
	r.logger.Info("initializing database", "path", dbPath)

	db, err := shared.NewDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", dbPath)
	return r.writePlain("✓ History database ready at %s\n", dbPath)
}
