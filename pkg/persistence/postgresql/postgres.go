// Package postgresql provides PostgreSQL persistence for execution documents.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/conveyor-cd/conveyor/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Repository implements persistence.ExecutionRepository on PostgreSQL.
// The execution document is stored as JSONB; stage replacement rewrites
// the document under the row lock of the owning execution.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRepository(ctx context.Context, logger *slog.Logger, databaseURL string) (*Repository, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Repository{
		db:     database,
		logger: logger,
	}, nil
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close(_ context.Context) error {
	if r.db != nil {
		err := r.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS executions (
				id VARCHAR(255) NOT NULL,
				type VARCHAR(32) NOT NULL,
				application VARCHAR(255) NOT NULL,
				status VARCHAR(32) NOT NULL,
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				PRIMARY KEY (type, id)
			);

			CREATE INDEX IF NOT EXISTS idx_executions_application ON executions(application);
			CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status);
		`,
	}
}
