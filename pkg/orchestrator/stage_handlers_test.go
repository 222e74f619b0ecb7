package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/conveyor-cd/conveyor/pkg/cloud"
	"github.com/conveyor-cd/conveyor/pkg/messages"
	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/conveyor-cd/conveyor/pkg/rollout"
	"github.com/conveyor-cd/conveyor/pkg/stages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubBuilder struct {
	typ   string
	tasks []models.TaskDescriptor
}

func (b stubBuilder) Type() string { return b.typ }

func (b stubBuilder) TaskGraph(_ *models.Stage) []models.TaskDescriptor { return b.tasks }

type stubGraphBuilder struct {
	stubBuilder

	before []models.StageDescriptor
	after  []models.StageDescriptor
}

func (b stubGraphBuilder) BuildGraph(_ context.Context, _ *models.Stage) ([]models.StageDescriptor, []models.StageDescriptor, error) {
	return b.before, b.after, nil
}

func unexpandedDeployExecution() *models.Execution {
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
				Status: models.StatusNotStarted,
				Context: map[string]any{
					stages.ContextKeyCluster: map[string]any{
						"application":    "fortress",
						"account":        "prod",
						"stack":          "main",
						"cloud_provider": "aws",
						"strategy":       "redblack",
						"availability_zones": map[string]any{
							"us-west-1": []any{"us-west-1a"},
						},
					},
				},
			},
		},
	}
}

func TestHandleStartStage_ExpandsDeployStage(t *testing.T) {
	f := newFixture(t)
	execution := unexpandedDeployExecution()

	engine := rollout.NewEngine(cloud.StaticResolver{Groups: []models.ServerGroup{
		{Name: "fortress-main-v000", Region: "us-west-1", Sequence: 0},
	}}, f.o.logger)
	f.registry.RegisterStageBuilder(stages.NewDeployBuilder(engine))

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)
	f.repo.On("StoreStage", mock.Anything, models.ExecutionTypePipeline, "exec-1", execution.Stages[0]).Return(nil)
	f.queue.On("Push", mock.Anything, mock.MatchedBy(func(msg messages.Message) bool {
		start, ok := msg.(*messages.StartTask)

		return ok && start.StageID == "1" && start.TaskID == "1"
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, "pipeline:exec-1", mock.AnythingOfType("events.StageStarted")).Return(nil)

	err := f.o.handleStartStage(context.Background(), &messages.StartStage{Address: stageAddr("1")})
	require.NoError(t, err)

	stage := execution.Stages[0]
	assert.Equal(t, models.StatusRunning, stage.Status)
	require.NotNil(t, stage.StartTime)

	require.Len(t, stage.Tasks, 2)
	assert.Equal(t, "createServerGroup", stage.Tasks[0].ImplementingClass)
	assert.Equal(t, "waitForUpInstances", stage.Tasks[1].ImplementingClass)

	assert.Empty(t, stage.BeforeStages)
	require.Len(t, stage.AfterStages, 1)
	child := stage.AfterStages[0]
	assert.Equal(t, "1-after-1", child.ID)
	assert.Equal(t, rollout.StageTypeDisableServerGroup, child.Type)
	assert.Equal(t, "1", child.ParentStageID)
	assert.Equal(t, models.StatusNotStarted, child.Status)
	assert.Equal(t, "fortress-main-v000", child.Context[rollout.ContextKeyServerGroup])

	f.assertExpectations(t)
}

func TestHandleStartStage_RedeliveryAbsorbed(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)

	err := f.o.handleStartStage(context.Background(), &messages.StartStage{Address: stageAddr("1")})
	require.NoError(t, err)

	f.repo.AssertNotCalled(t, "StoreStage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestHandleStartStage_BeforeStageSequencedFirst(t *testing.T) {
	f := newFixture(t)
	execution := unexpandedDeployExecution()
	execution.Stages[0].Type = "canary"

	f.registry.RegisterStageBuilder(stubGraphBuilder{
		stubBuilder: stubBuilder{typ: "canary", tasks: []models.TaskDescriptor{
			{Name: "Run Canary", ImplementingClass: "runCanary"},
		}},
		before: []models.StageDescriptor{{Type: "wait", Name: "Bake"}},
	})

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)
	f.repo.On("StoreStage", mock.Anything, models.ExecutionTypePipeline, "exec-1", execution.Stages[0]).Return(nil)
	f.queue.On("Push", mock.Anything, mock.MatchedBy(func(msg messages.Message) bool {
		start, ok := msg.(*messages.StartStage)

		return ok && start.StageID == "1-before-1"
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, "pipeline:exec-1", mock.AnythingOfType("events.StageStarted")).Return(nil)

	err := f.o.handleStartStage(context.Background(), &messages.StartStage{Address: stageAddr("1")})
	require.NoError(t, err)

	require.Len(t, execution.Stages[0].BeforeStages, 1)
	f.assertExpectations(t)
}

func TestHandleStartStage_EmptyStageCompletesImmediately(t *testing.T) {
	f := newFixture(t)
	execution := unexpandedDeployExecution()
	execution.Stages[0].Type = "noop"
	execution.Stages[0].Context = nil

	f.registry.RegisterStageBuilder(stubBuilder{typ: "noop"})

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)
	f.repo.On("StoreStage", mock.Anything, models.ExecutionTypePipeline, "exec-1", execution.Stages[0]).Return(nil)
	f.queue.On("Push", mock.Anything, mock.MatchedBy(func(msg messages.Message) bool {
		complete, ok := msg.(*messages.CompleteStage)

		return ok && complete.StageID == "1"
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, "pipeline:exec-1", mock.AnythingOfType("events.StageStarted")).Return(nil)

	err := f.o.handleStartStage(context.Background(), &messages.StartStage{Address: stageAddr("1")})
	require.NoError(t, err)

	f.assertExpectations(t)
}

func TestHandleStartStage_UnknownStageType(t *testing.T) {
	f := newFixture(t)
	execution := unexpandedDeployExecution()

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)

	err := f.o.handleStartStage(context.Background(), &messages.StartStage{Address: stageAddr("1")})
	require.Error(t, err)

	assert.Equal(t, models.StatusNotStarted, execution.Stages[0].Status)
	f.queue.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestHandleCompleteStage_StartsPendingAfterStage(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()
	execution.Stages[0].Tasks[0].Status = models.StatusSucceeded
	execution.Stages[0].Tasks[1].Status = models.StatusSucceeded
	execution.Stages[0].AfterStages = []*models.Stage{
		{ID: "1-after-1", Type: "disableServerGroup", Status: models.StatusNotStarted, ParentStageID: "1"},
	}

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)
	f.queue.On("Push", mock.Anything, mock.MatchedBy(func(msg messages.Message) bool {
		start, ok := msg.(*messages.StartStage)

		return ok && start.StageID == "1-after-1"
	})).Return(nil)

	err := f.o.handleCompleteStage(context.Background(), &messages.CompleteStage{Address: stageAddr("1")})
	require.NoError(t, err)

	f.assertExpectations(t)
}

func TestHandleCompleteStage_WaitsForRunningAfterStage(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()
	execution.Stages[0].Tasks[0].Status = models.StatusSucceeded
	execution.Stages[0].Tasks[1].Status = models.StatusSucceeded
	execution.Stages[0].AfterStages = []*models.Stage{
		{ID: "1-after-1", Type: "disableServerGroup", Status: models.StatusRunning, ParentStageID: "1"},
	}

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)

	err := f.o.handleCompleteStage(context.Background(), &messages.CompleteStage{Address: stageAddr("1")})
	require.NoError(t, err)

	f.queue.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestHandleCompleteStage_FinalizesAndCompletesExecution(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()
	execution.Stages[0].Tasks[0].Status = models.StatusSucceeded
	execution.Stages[0].Tasks[1].Status = models.StatusSucceeded

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)
	f.repo.On("StoreStage", mock.Anything, models.ExecutionTypePipeline, "exec-1", execution.Stages[0]).Return(nil)
	f.queue.On("Push", mock.Anything, mock.MatchedBy(func(msg messages.Message) bool {
		_, ok := msg.(*messages.CompleteExecution)

		return ok
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, "pipeline:exec-1", mock.AnythingOfType("events.StageCompleted")).Return(nil)

	err := f.o.handleCompleteStage(context.Background(), &messages.CompleteStage{Address: stageAddr("1")})
	require.NoError(t, err)

	stage := execution.Stages[0]
	assert.Equal(t, models.StatusSucceeded, stage.Status)
	require.NotNil(t, stage.EndTime)
	assert.Equal(t, testNow, *stage.EndTime)

	f.assertExpectations(t)
}

func TestHandleCompleteStage_FinalizePersistFailureStopsChain(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()
	execution.Stages[0].Tasks[0].Status = models.StatusSucceeded
	execution.Stages[0].Tasks[1].Status = models.StatusSucceeded
	storeErr := errors.New("write conflict")

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)
	f.repo.On("StoreStage", mock.Anything, models.ExecutionTypePipeline, "exec-1", execution.Stages[0]).Return(storeErr)

	err := f.o.handleCompleteStage(context.Background(), &messages.CompleteStage{Address: stageAddr("1")})
	require.ErrorIs(t, err, storeErr)

	f.queue.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCompleteStage_FinalizeEnqueueFailureSkipsEvent(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()
	execution.Stages[0].Tasks[0].Status = models.StatusSucceeded
	execution.Stages[0].Tasks[1].Status = models.StatusSucceeded
	pushErr := errors.New("broker unavailable")

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)
	f.repo.On("StoreStage", mock.Anything, models.ExecutionTypePipeline, "exec-1", execution.Stages[0]).Return(nil)
	f.queue.On("Push", mock.Anything, mock.Anything).Return(pushErr)

	err := f.o.handleCompleteStage(context.Background(), &messages.CompleteStage{Address: stageAddr("1")})
	require.ErrorIs(t, err, pushErr)

	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCompleteStage_FinalizedChildResumesParent(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()
	execution.Stages[0].Tasks[0].Status = models.StatusSucceeded
	execution.Stages[0].Tasks[1].Status = models.StatusSucceeded
	execution.Stages[0].AfterStages = []*models.Stage{
		{
			ID:            "1-after-1",
			Type:          "disableServerGroup",
			Status:        models.StatusRunning,
			ParentStageID: "1",
			Tasks: []*models.Task{
				{ID: "1", ImplementingClass: "disableServerGroup", Status: models.StatusSucceeded},
			},
		},
	}

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)
	f.repo.On("StoreStage", mock.Anything, models.ExecutionTypePipeline, "exec-1", execution.Stages[0].AfterStages[0]).Return(nil)
	f.queue.On("Push", mock.Anything, mock.MatchedBy(func(msg messages.Message) bool {
		complete, ok := msg.(*messages.CompleteStage)

		return ok && complete.StageID == "1"
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, "pipeline:exec-1", mock.AnythingOfType("events.StageCompleted")).Return(nil)

	err := f.o.handleCompleteStage(context.Background(), &messages.CompleteStage{Address: stageAddr("1-after-1")})
	require.NoError(t, err)

	assert.Equal(t, models.StatusSucceeded, execution.Stages[0].AfterStages[0].Status)
	f.assertExpectations(t)
}

func TestHandleCompleteStage_AdvancesToSiblingStage(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()
	execution.Stages[0].Tasks[0].Status = models.StatusSucceeded
	execution.Stages[0].Tasks[1].Status = models.StatusSucceeded
	execution.Stages = append(execution.Stages, &models.Stage{
		ID: "2", Type: "wait", Status: models.StatusNotStarted,
	})

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)
	f.repo.On("StoreStage", mock.Anything, models.ExecutionTypePipeline, "exec-1", execution.Stages[0]).Return(nil)
	f.queue.On("Push", mock.Anything, mock.MatchedBy(func(msg messages.Message) bool {
		start, ok := msg.(*messages.StartStage)

		return ok && start.StageID == "2"
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, "pipeline:exec-1", mock.AnythingOfType("events.StageCompleted")).Return(nil)

	err := f.o.handleCompleteStage(context.Background(), &messages.CompleteStage{Address: stageAddr("1")})
	require.NoError(t, err)

	f.assertExpectations(t)
}

func TestHandleCompleteStage_HaltSkipsSiblings(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()
	execution.Stages[0].Tasks[0].Status = models.StatusTerminal
	execution.Stages = append(execution.Stages, &models.Stage{
		ID: "2", Type: "wait", Status: models.StatusNotStarted,
	})

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)
	f.repo.On("StoreStage", mock.Anything, models.ExecutionTypePipeline, "exec-1", execution.Stages[0]).Return(nil)
	f.queue.On("Push", mock.Anything, mock.MatchedBy(func(msg messages.Message) bool {
		_, ok := msg.(*messages.CompleteExecution)

		return ok
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, "pipeline:exec-1", mock.AnythingOfType("events.StageCompleted")).Return(nil)

	err := f.o.handleCompleteStage(context.Background(), &messages.CompleteStage{Address: stageAddr("1")})
	require.NoError(t, err)

	assert.Equal(t, models.StatusTerminal, execution.Stages[0].Status)
	f.assertExpectations(t)
}

func TestHandleCompleteStage_RunningTaskWaits(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()
	execution.Stages[0].Tasks[0].Status = models.StatusRunning

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)

	err := f.o.handleCompleteStage(context.Background(), &messages.CompleteStage{Address: stageAddr("1")})
	require.NoError(t, err)

	f.queue.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestHandleCompleteStage_CompletedStageAbsorbsRedelivery(t *testing.T) {
	f := newFixture(t)
	execution := testExecution()
	execution.Stages[0].Status = models.StatusSucceeded

	f.repo.On("Retrieve", mock.Anything, models.ExecutionTypePipeline, "exec-1").Return(execution, nil)

	err := f.o.handleCompleteStage(context.Background(), &messages.CompleteStage{Address: stageAddr("1")})
	require.NoError(t, err)

	f.repo.AssertNotCalled(t, "StoreStage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}
