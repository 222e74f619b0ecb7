// Package mocks provides testify mocks for the orchestrator's collaborators.
package mocks

import (
	"context"
	"time"

	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockExecutionRepository is a mock implementation of persistence.ExecutionRepository.
type MockExecutionRepository struct {
	mock.Mock
}

func (m *MockExecutionRepository) Retrieve(ctx context.Context, execType models.ExecutionType, id string) (*models.Execution, error) {
	args := m.Called(ctx, execType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}

func (m *MockExecutionRepository) Store(ctx context.Context, execution *models.Execution) error {
	args := m.Called(ctx, execution)

	return args.Error(0)
}

func (m *MockExecutionRepository) StoreStage(ctx context.Context, execType models.ExecutionType, executionID string, stage *models.Stage) error {
	args := m.Called(ctx, execType, executionID, stage)

	return args.Error(0)
}

func (m *MockExecutionRepository) StoreStatus(ctx context.Context, execType models.ExecutionType, executionID string, status models.Status, at time.Time) error {
	args := m.Called(ctx, execType, executionID, status, at)

	return args.Error(0)
}

func (m *MockExecutionRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockExecutionRepository) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
