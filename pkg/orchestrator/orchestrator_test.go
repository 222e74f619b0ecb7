package orchestrator

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/conveyor-cd/conveyor/pkg/messages"
	"github.com/conveyor-cd/conveyor/pkg/mocks"
	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/conveyor-cd/conveyor/pkg/registry"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo      *mocks.MockExecutionRepository
	queue     *mocks.MockQueue
	publisher *mocks.MockPublisher
	registry  *registry.Registry
	o         *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	f := &fixture{
		repo:      new(mocks.MockExecutionRepository),
		queue:     new(mocks.MockQueue),
		publisher: new(mocks.MockPublisher),
		registry:  registry.NewRegistry(logger),
	}

	f.o = New(f.repo, f.queue, f.publisher, f.registry, logger)
	f.o.clock = func() time.Time { return testNow }

	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()

	f.repo.AssertExpectations(t)
	f.queue.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

// testExecution builds a running single-stage execution with two
// not-started tasks, the shape most handler tests start from.
func testExecution() *models.Execution {
	return &models.Execution{
		ID:          "exec-1",
		Type:        models.ExecutionTypePipeline,
		Application: "fortress",
		Status:      models.StatusRunning,
		Stages: []*models.Stage{
			{
				ID:     "1",
				Type:   "deploy",
				Name:   "Deploy",
				Status: models.StatusRunning,
				Tasks: []*models.Task{
					{ID: "1", Name: "Create Server Group", ImplementingClass: "createServerGroup", Status: models.StatusNotStarted},
					{ID: "2", Name: "Wait For Up Instances", ImplementingClass: "waitForUpInstances", Status: models.StatusNotStarted},
				},
			},
		},
	}
}

func taskAddr(taskID string) messages.Address {
	return messages.Address{
		ExecutionType: models.ExecutionTypePipeline,
		ExecutionID:   "exec-1",
		StageID:       "1",
		TaskID:        taskID,
	}
}

func stageAddr(stageID string) messages.Address {
	return messages.Address{
		ExecutionType: models.ExecutionTypePipeline,
		ExecutionID:   "exec-1",
		StageID:       stageID,
	}
}

func execAddr() messages.Address {
	return messages.Address{
		ExecutionType: models.ExecutionTypePipeline,
		ExecutionID:   "exec-1",
	}
}
