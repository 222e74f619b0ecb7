package mocks

import (
	"context"
	"time"

	"github.com/conveyor-cd/conveyor/pkg/messages"
	"github.com/conveyor-cd/conveyor/pkg/queue"
	"github.com/stretchr/testify/mock"
)

// MockQueue is a mock implementation of queue.Queue.
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Push(ctx context.Context, msg messages.Message) error {
	args := m.Called(ctx, msg)

	return args.Error(0)
}

func (m *MockQueue) PushDelayed(ctx context.Context, msg messages.Message, delay time.Duration) error {
	args := m.Called(ctx, msg, delay)

	return args.Error(0)
}

func (m *MockQueue) Handle(msgType messages.Type, handler queue.Handler) {
	m.Called(msgType, handler)
}

func (m *MockQueue) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockQueue) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockQueue) GenerateID() string {
	args := m.Called()

	return args.String(0)
}
