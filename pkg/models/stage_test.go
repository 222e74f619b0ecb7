package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeTaskStage() *Stage {
	return &Stage{
		ID:     "1",
		Type:   "deploy",
		Status: StatusRunning,
		Tasks: []*Task{
			{ID: "1", Status: StatusSucceeded},
			{ID: "2", Status: StatusRunning},
			{ID: "3", Status: StatusNotStarted},
		},
	}
}

func TestStageNextTask(t *testing.T) {
	stage := threeTaskStage()

	next := stage.NextTask("1")
	require.NotNil(t, next)
	assert.Equal(t, "2", next.ID)

	assert.Nil(t, stage.NextTask("3"))
	assert.Nil(t, stage.NextTask("missing"))
}

func TestStageFirstIncompleteTask(t *testing.T) {
	stage := threeTaskStage()

	task := stage.FirstIncompleteTask()
	require.NotNil(t, task)
	assert.Equal(t, "2", task.ID)

	for _, task := range stage.Tasks {
		task.Status = StatusSucceeded
	}

	assert.Nil(t, stage.FirstIncompleteTask())
}

func TestStageAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Stage)
		expected Status
	}{
		{
			name:     "running task keeps stage running",
			mutate:   func(_ *Stage) {},
			expected: StatusRunning,
		},
		{
			name: "terminal task wins over everything",
			mutate: func(s *Stage) {
				s.Tasks[1].Status = StatusTerminal
			},
			expected: StatusTerminal,
		},
		{
			name: "canceled task cancels the stage once settled",
			mutate: func(s *Stage) {
				s.Tasks[1].Status = StatusCanceled
				s.Tasks[2].Status = StatusSkipped
			},
			expected: StatusCanceled,
		},
		{
			name: "all tasks complete without halt succeeds",
			mutate: func(s *Stage) {
				s.Tasks[1].Status = StatusFailedContinue
				s.Tasks[2].Status = StatusSucceeded
			},
			expected: StatusSucceeded,
		},
		{
			name: "pending synthetic stage keeps the stage running",
			mutate: func(s *Stage) {
				s.Tasks[1].Status = StatusSucceeded
				s.Tasks[2].Status = StatusSucceeded
				s.AfterStages = []*Stage{{ID: "1-after-1", Status: StatusNotStarted}}
			},
			expected: StatusRunning,
		},
		{
			name: "terminal synthetic stage fails the stage",
			mutate: func(s *Stage) {
				s.Tasks[1].Status = StatusSucceeded
				s.Tasks[2].Status = StatusSucceeded
				s.AfterStages = []*Stage{{ID: "1-after-1", Status: StatusTerminal}}
			},
			expected: StatusTerminal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := threeTaskStage()
			tt.mutate(stage)

			assert.Equal(t, tt.expected, stage.AggregateStatus())
		})
	}
}

func TestStageExpanded(t *testing.T) {
	assert.True(t, threeTaskStage().Expanded())
	assert.False(t, (&Stage{ID: "1"}).Expanded())
}
