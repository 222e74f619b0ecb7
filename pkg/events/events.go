// Package events defines notification events emitted on execution state
// transitions. Events are fire-and-forget: observers consume them, the
// orchestrator never depends on their delivery for correctness.
package events

import (
	"time"

	"github.com/conveyor-cd/conveyor/pkg/models"
)

type EventType string

const Topic = "conveyor.events"

const EventKeyMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	StageStartedEvent       EventType = "stage.started"
	StageCompletedEvent     EventType = "stage.completed"
	TaskStartedEvent        EventType = "task.started"
	TaskCompletedEvent      EventType = "task.completed"
)

type BaseEvent struct {
	ID            string               `json:"id"`
	Type          EventType            `json:"type"`
	Timestamp     time.Time            `json:"timestamp"`
	ExecutionType models.ExecutionType `json:"execution_type"`
	ExecutionID   string               `json:"execution_id"`
}

type ExecutionStarted struct {
	BaseEvent

	Application string `json:"application"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	Status models.Status `json:"status"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type StageStarted struct {
	BaseEvent

	StageID   string `json:"stage_id"`
	StageType string `json:"stage_type"`
}

func (e StageStarted) GetType() EventType {
	return StageStartedEvent
}

type StageCompleted struct {
	BaseEvent

	StageID   string        `json:"stage_id"`
	StageType string        `json:"stage_type"`
	Status    models.Status `json:"status"`
}

func (e StageCompleted) GetType() EventType {
	return StageCompletedEvent
}

type TaskStarted struct {
	BaseEvent

	StageID  string `json:"stage_id"`
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
}

func (e TaskStarted) GetType() EventType {
	return TaskStartedEvent
}

type TaskCompleted struct {
	BaseEvent

	StageID  string        `json:"stage_id"`
	TaskID   string        `json:"task_id"`
	TaskName string        `json:"task_name"`
	Status   models.Status `json:"status"`
}

func (e TaskCompleted) GetType() EventType {
	return TaskCompletedEvent
}
