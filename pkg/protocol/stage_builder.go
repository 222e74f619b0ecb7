package protocol

import (
	"context"

	"github.com/conveyor-cd/conveyor/pkg/models"
)

// StageBuilder expands a stage of its declared type into the task list
// the orchestrator will drive.
type StageBuilder interface {
	Type() string
	TaskGraph(stage *models.Stage) []models.TaskDescriptor
}

// GraphAware is implemented by stage builders that inject synthetic
// before/after stages around their own tasks, e.g. the deploy builder
// delegating to the rollout strategy engine.
type GraphAware interface {
	BuildGraph(ctx context.Context, stage *models.Stage) (before, after []models.StageDescriptor, err error)
}
