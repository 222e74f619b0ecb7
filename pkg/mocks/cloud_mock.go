package mocks

import (
	"context"

	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockCloudResolver is a mock implementation of cloud.Resolver.
type MockCloudResolver struct {
	mock.Mock
}

func (m *MockCloudResolver) GetExistingGroups(ctx context.Context, application, account, clusterName, cloudProvider string) ([]models.ServerGroup, error) {
	args := m.Called(ctx, application, account, clusterName, cloudProvider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.ServerGroup), args.Error(1)
}
