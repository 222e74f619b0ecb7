// Package messages defines the typed queue messages that drive the
// execution state machine. Each message is an immutable command
// addressed by execution type, execution id, stage id and task id;
// it is produced by one handler and consumed by exactly one other.
package messages

import "github.com/conveyor-cd/conveyor/pkg/models"

type Type string

// Queue topic and metadata keys.
const Topic = "conveyor.messages"

const MessageKeyMetadataKey = "key"
const MessageTypeMetadataKey = "message_type"

const (
	StartExecutionType    Type = "execution.start"
	CompleteExecutionType Type = "execution.complete"
	StartStageType        Type = "stage.start"
	CompleteStageType     Type = "stage.complete"
	StartTaskType         Type = "task.start"
	RunTaskType           Type = "task.run"
	CompleteTaskType      Type = "task.complete"
)

// Message is implemented by every queue message.
type Message interface {
	GetType() Type
	Key() string
}

// Address identifies the execution document slice a message acts on.
type Address struct {
	ExecutionType models.ExecutionType `json:"execution_type"`
	ExecutionID   string               `json:"execution_id"`
	StageID       string               `json:"stage_id,omitempty"`
	TaskID        string               `json:"task_id,omitempty"`
}

// Key returns the routing key for the address. Messages for the same
// execution share a key so partitioned transports keep them ordered.
func (a Address) Key() string {
	return string(a.ExecutionType) + ":" + a.ExecutionID
}

type StartExecution struct {
	Address
}

func (m StartExecution) GetType() Type {
	return StartExecutionType
}

type CompleteExecution struct {
	Address
}

func (m CompleteExecution) GetType() Type {
	return CompleteExecutionType
}

type StartStage struct {
	Address
}

func (m StartStage) GetType() Type {
	return StartStageType
}

type CompleteStage struct {
	Address
}

func (m CompleteStage) GetType() Type {
	return CompleteStageType
}

type StartTask struct {
	Address
}

func (m StartTask) GetType() Type {
	return StartTaskType
}

// RunTask carries the implementation reference resolved by StartTask so
// the run handler does not depend on the registry state at start time.
type RunTask struct {
	Address

	ImplementingClass string `json:"implementing_class"`
}

func (m RunTask) GetType() Type {
	return RunTaskType
}

type CompleteTask struct {
	Address

	Status models.Status `json:"status"`
}

func (m CompleteTask) GetType() Type {
	return CompleteTaskType
}
