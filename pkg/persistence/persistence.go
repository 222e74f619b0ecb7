// Package persistence provides the storage abstraction for execution documents.
package persistence

import (
	"context"
	"time"

	"github.com/conveyor-cd/conveyor/pkg/models"
)

// ExecutionRepository is the durable store of execution documents. The
// orchestrator mutates executions exclusively through StoreStage and
// StoreStatus; StoreStage replaces the stage's persisted representation
// wholesale (last writer wins per stage).
type ExecutionRepository interface {
	Retrieve(ctx context.Context, execType models.ExecutionType, id string) (*models.Execution, error)
	Store(ctx context.Context, execution *models.Execution) error
	StoreStage(ctx context.Context, execType models.ExecutionType, executionID string, stage *models.Stage) error
	StoreStatus(ctx context.Context, execType models.ExecutionType, executionID string, status models.Status, at time.Time) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
