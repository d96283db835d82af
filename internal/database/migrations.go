package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/001_init_schema.sql
var migrationSQL string

// RunMigrations runs database migrations on startup
func RunMigrations(db *pgxpool.Pool, logger *zap.Logger) error {
	ctx := context.Background()

	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'users'
		)
	`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if migrations needed: %w", err)
	}

	if exists {
		logger.Info("database already migrated, skipping")
		return nil
	}

	logger.Info("database is empty, running migrations")

	if _, err := db.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database migrations completed")
	return nil
}
