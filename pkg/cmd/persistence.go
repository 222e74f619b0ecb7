package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conveyor-cd/conveyor/pkg/persistence"
	"github.com/conveyor-cd/conveyor/pkg/persistence/file"
	"github.com/conveyor-cd/conveyor/pkg/persistence/postgresql"
)

func NewRepository(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.ExecutionRepository {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		repository, err := postgresql.NewRepository(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL repository: %w", err))
		}

		return repository
	default:
		return file.NewRepository(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
