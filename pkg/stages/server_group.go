package stages

import (
	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/conveyor-cd/conveyor/pkg/rollout"
)

// ServerGroupBuilder covers the synthetic single-task stages the rollout
// engine generates: disable, resize and destroy.
type ServerGroupBuilder struct {
	stageType string
	taskName  string
	taskClass string
}

func (b ServerGroupBuilder) Type() string {
	return b.stageType
}

func (b ServerGroupBuilder) TaskGraph(_ *models.Stage) []models.TaskDescriptor {
	return []models.TaskDescriptor{
		{Name: b.taskName, ImplementingClass: b.taskClass},
	}
}

func NewDisableServerGroupBuilder() ServerGroupBuilder {
	return ServerGroupBuilder{
		stageType: rollout.StageTypeDisableServerGroup,
		taskName:  "Disable Server Group",
		taskClass: "disableServerGroup",
	}
}

func NewResizeServerGroupBuilder() ServerGroupBuilder {
	return ServerGroupBuilder{
		stageType: rollout.StageTypeResizeServerGroup,
		taskName:  "Resize Server Group",
		taskClass: "resizeServerGroup",
	}
}

func NewDestroyServerGroupBuilder() ServerGroupBuilder {
	return ServerGroupBuilder{
		stageType: rollout.StageTypeDestroyServerGroup,
		taskName:  "Destroy Server Group",
		taskClass: "destroyServerGroup",
	}
}
