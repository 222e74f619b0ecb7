package persistence

import "errors"

// ErrNotFound is returned when the requested execution does not exist.
var ErrNotFound = errors.New("execution not found")

// ErrStageNotFound is returned by StoreStage when the execution document
// does not contain the stage being replaced.
var ErrStageNotFound = errors.New("stage not found in execution")
