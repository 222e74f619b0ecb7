package models

import "time"

// Task is the smallest unit of executable work inside a stage. Tasks are
// created when a stage is expanded and are only ever transitioned by the
// orchestrator, never deleted.
type Task struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	ImplementingClass string     `json:"implementing_class"`
	Status            Status     `json:"status"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *time.Time `json:"end_time,omitempty"`
}

// TaskDescriptor declares a task to be materialized when a stage is
// expanded. Stage builders return these; the orchestrator assigns IDs.
type TaskDescriptor struct {
	Name              string `json:"name"`
	ImplementingClass string `json:"implementing_class"`
}

// TaskResult is the self-reported outcome of one invocation of a task
// implementation. A RUNNING status means the task is still working and
// should be polled again; anything complete is recorded as-is.
type TaskResult struct {
	Status  Status         `json:"status"`
	Outputs map[string]any `json:"outputs,omitempty"`
}
