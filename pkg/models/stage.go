package models

import "time"

// Stage is one workflow node of an execution. Its context map is a
// string-keyed blackboard: earlier stages and tasks write values that
// later ones read. BeforeStages and AfterStages hold synthetic stages
// injected by the stage graph builder; they are driven by the
// orchestrator exactly like authored stages.
type Stage struct {
	ID            string         `json:"id"`
	RefID         string         `json:"ref_id,omitempty"`
	Type          string         `json:"type"`
	Name          string         `json:"name"`
	Status        Status         `json:"status"`
	Context       map[string]any `json:"context,omitempty"`
	Tasks         []*Task        `json:"tasks,omitempty"`
	BeforeStages  []*Stage       `json:"before_stages,omitempty"`
	AfterStages   []*Stage       `json:"after_stages,omitempty"`
	ParentStageID string         `json:"parent_stage_id,omitempty"`
	StartTime     *time.Time     `json:"start_time,omitempty"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
}

// StageDescriptor declares a synthetic stage computed by the graph
// builder. The context carries everything the stage needs at run time,
// resolved at build time so later config changes cannot alter it.
type StageDescriptor struct {
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Context map[string]any `json:"context,omitempty"`
}

// TaskByID returns the task with the given ID, or nil.
func (s *Stage) TaskByID(taskID string) *Task {
	for _, task := range s.Tasks {
		if task.ID == taskID {
			return task
		}
	}

	return nil
}

// NextTask returns the first task after taskID that has not started, or
// nil when taskID is the last task.
func (s *Stage) NextTask(taskID string) *Task {
	for i, task := range s.Tasks {
		if task.ID == taskID && i+1 < len(s.Tasks) {
			return s.Tasks[i+1]
		}
	}

	return nil
}

// FirstIncompleteTask returns the first task that has not reached a
// complete status, or nil when every task is complete.
func (s *Stage) FirstIncompleteTask() *Task {
	for _, task := range s.Tasks {
		if !task.Status.IsComplete() {
			return task
		}
	}

	return nil
}

// HaltedTask returns the first task whose status halts the stage, or nil.
func (s *Stage) HaltedTask() *Task {
	for _, task := range s.Tasks {
		if task.Status.IsHalt() {
			return task
		}
	}

	return nil
}

// Expanded reports whether the stage has already been expanded into
// tasks. StartStage uses this to stay idempotent under redelivery.
func (s *Stage) Expanded() bool {
	return len(s.Tasks) > 0
}

// SyntheticStages returns the injected before and after stages in
// execution order.
func (s *Stage) SyntheticStages() []*Stage {
	stages := make([]*Stage, 0, len(s.BeforeStages)+len(s.AfterStages))
	stages = append(stages, s.BeforeStages...)
	stages = append(stages, s.AfterStages...)

	return stages
}

// AggregateStatus folds the statuses of the stage's tasks and injected
// stages into the status the stage itself should report. A stage is
// never reported complete while an injected stage is still pending.
func (s *Stage) AggregateStatus() Status {
	canceled := false

	for _, task := range s.Tasks {
		switch task.Status {
		case StatusTerminal:
			return StatusTerminal
		case StatusCanceled:
			canceled = true
		}
	}

	for _, child := range s.SyntheticStages() {
		switch child.Status {
		case StatusTerminal:
			return StatusTerminal
		case StatusCanceled:
			canceled = true
		}
	}

	if canceled {
		return StatusCanceled
	}

	for _, task := range s.Tasks {
		if !task.Status.IsComplete() {
			return StatusRunning
		}
	}

	for _, child := range s.SyntheticStages() {
		if !child.Status.IsComplete() {
			return StatusRunning
		}
	}

	return StatusSucceeded
}
