package orchestrator

import "errors"

// ErrStageNotFound is returned when a message addresses a stage the
// execution document does not contain.
var ErrStageNotFound = errors.New("stage not found")

// ErrTaskNotFound is returned when a message addresses a task the stage
// does not contain.
var ErrTaskNotFound = errors.New("task not found")

// ErrUnexpectedMessage is returned when a handler receives a message of
// the wrong concrete type.
var ErrUnexpectedMessage = errors.New("unexpected message type")
