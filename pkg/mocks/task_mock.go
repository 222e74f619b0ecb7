package mocks

import (
	"context"

	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockTask is a mock implementation of protocol.Task.
type MockTask struct {
	mock.Mock
}

func (m *MockTask) Execute(ctx context.Context, stage *models.Stage) (*models.TaskResult, error) {
	args := m.Called(ctx, stage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.TaskResult), args.Error(1)
}
