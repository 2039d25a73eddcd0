package database

import (
	"context"
	"fmt"

	"github.com/expert-sys/positive-edge/internal/config"
)

// Initialize creates a database connection pool and verifies the schema is present
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	// Core tables must exist before the engine can run a cycle
	var tableCount int
	err = db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_name IN ('game_logs', 'team_stats', 'recommendations', 'cache_entries')
	`).Scan(&tableCount)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}

	if tableCount < 4 {
		db.Close()
		return nil, fmt.Errorf(
			"required tables missing (found %d of 4). Run database migrations: "+
				"migrate -path migrations -database \"your_dsn\" up", tableCount,
		)
	}

	// Verify migrations are applied by checking schema_migrations table
	var migrationCount int
	err = db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&migrationCount)
	if err != nil {
		// Table might not exist yet, which is OK for initial setup
		return db, nil
	}

	if migrationCount == 0 {
		fmt.Println("Warning: No migrations have been applied. Please run database migrations.")
	}

	return db, nil
}
