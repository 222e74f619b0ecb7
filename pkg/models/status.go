// Package models defines the core domain models for pipeline execution.
package models

// Status represents the lifecycle state of an execution, stage or task.
type Status string

const (
	StatusNotStarted     Status = "NOT_STARTED"
	StatusRunning        Status = "RUNNING"
	StatusPaused         Status = "PAUSED"
	StatusSucceeded      Status = "SUCCEEDED"
	StatusFailedContinue Status = "FAILED_CONTINUE"
	StatusTerminal       Status = "TERMINAL"
	StatusCanceled       Status = "CANCELED"
	StatusSkipped        Status = "SKIPPED"
)

// IsComplete reports whether the status is terminal: no further
// transitions are allowed once a unit of work reaches it.
func (s Status) IsComplete() bool {
	switch s {
	case StatusSucceeded, StatusFailedContinue, StatusTerminal, StatusCanceled, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsHalt reports whether the status stops the enclosing stage and
// execution from making further progress.
func (s Status) IsHalt() bool {
	return s == StatusTerminal || s == StatusCanceled
}

// IsSuccessful reports whether downstream work may proceed past a unit
// with this status. FAILED_CONTINUE and SKIPPED do not block downstream
// work.
func (s Status) IsSuccessful() bool {
	switch s {
	case StatusSucceeded, StatusFailedContinue, StatusSkipped:
		return true
	default:
		return false
	}
}
