package stages

import "github.com/conveyor-cd/conveyor/pkg/models"

// WaitBuilder expands a wait stage into its single wait task.
type WaitBuilder struct{}

func (WaitBuilder) Type() string {
	return "wait"
}

func (WaitBuilder) TaskGraph(_ *models.Stage) []models.TaskDescriptor {
	return []models.TaskDescriptor{
		{Name: "Wait", ImplementingClass: "wait"},
	}
}
