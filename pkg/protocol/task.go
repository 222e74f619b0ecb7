// Package protocol defines the capability interfaces the orchestrator
// consumes: task implementations and stage builders. Concrete business
// logic lives behind these interfaces and is registered at process start.
package protocol

import (
	"context"

	"github.com/conveyor-cd/conveyor/pkg/models"
)

// Task is one registered task implementation. Execute performs (or
// polls) the task's work against the stage's context and reports the
// resulting status; a RUNNING result means "poll me again later".
type Task interface {
	Execute(ctx context.Context, stage *models.Stage) (*models.TaskResult, error)
}
