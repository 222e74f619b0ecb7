package models

import "time"

// ExecutionType distinguishes the two kinds of execution documents.
type ExecutionType string

const (
	ExecutionTypePipeline      ExecutionType = "pipeline"
	ExecutionTypeOrchestration ExecutionType = "orchestration"
)

// Execution is one pipeline or orchestration run. It is created when a
// trigger request is accepted and mutated only by the orchestrator.
// Once the overall status is complete the document is immutable.
type Execution struct {
	ID          string        `json:"id"`
	Type        ExecutionType `json:"type"`
	Application string        `json:"application"`
	Name        string        `json:"name,omitempty"`
	Status      Status        `json:"status"`
	Stages      []*Stage      `json:"stages"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Inactive reports whether handlers must absorb messages addressed to
// this execution without acting: the run is over, canceled or paused.
func (e *Execution) Inactive() bool {
	return e.Status.IsComplete() || e.Status == StatusPaused
}

// StageByID returns the stage with the given ID, searching injected
// before/after stages recursively, or nil when absent.
func (e *Execution) StageByID(stageID string) *Stage {
	return findStage(e.Stages, stageID)
}

func findStage(stages []*Stage, stageID string) *Stage {
	for _, stage := range stages {
		if stage.ID == stageID {
			return stage
		}

		if found := findStage(stage.BeforeStages, stageID); found != nil {
			return found
		}

		if found := findStage(stage.AfterStages, stageID); found != nil {
			return found
		}
	}

	return nil
}

// ReplaceStage swaps the stage with the same ID for the given one,
// wholesale. Reports false when the execution holds no such stage.
func (e *Execution) ReplaceStage(stage *Stage) bool {
	existing := e.StageByID(stage.ID)
	if existing == nil {
		return false
	}

	*existing = *stage

	return true
}

// NextStage returns the top-level stage following stageID that has not
// started, or nil when stageID is the last top-level stage.
func (e *Execution) NextStage(stageID string) *Stage {
	for i, stage := range e.Stages {
		if stage.ID == stageID && i+1 < len(e.Stages) {
			return e.Stages[i+1]
		}
	}

	return nil
}

// AggregateStatus folds the top-level stage statuses into the overall
// execution status. Any halted stage fails the run; FAILED_CONTINUE
// tasks have already been absorbed into their stage's status.
func (e *Execution) AggregateStatus() Status {
	canceled := false
	running := false

	for _, stage := range e.Stages {
		switch {
		case stage.Status == StatusTerminal:
			return StatusTerminal
		case stage.Status == StatusCanceled:
			canceled = true
		case !stage.Status.IsComplete():
			running = true
		}
	}

	if canceled {
		return StatusCanceled
	}

	if running {
		return StatusRunning
	}

	return StatusSucceeded
}
