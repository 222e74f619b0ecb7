// Package orchestrator implements the execution state machine: one
// handler per queue message type, each performing a single atomic
// read-decide-write-enqueue step. Handlers share one discipline:
// persist, then enqueue the successor, then publish the event, so a
// crash between steps is always recoverable by queue redelivery.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/conveyor-cd/conveyor/pkg/events"
	"github.com/conveyor-cd/conveyor/pkg/messages"
	"github.com/conveyor-cd/conveyor/pkg/metrics"
	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/conveyor-cd/conveyor/pkg/persistence"
	"github.com/conveyor-cd/conveyor/pkg/queue"
	"github.com/conveyor-cd/conveyor/pkg/registry"
	"github.com/google/uuid"
)

const defaultRunTaskBackoff = 10 * time.Second

type Orchestrator struct {
	repository persistence.ExecutionRepository
	queue      queue.Queue
	publisher  events.Publisher
	registry   *registry.Registry
	logger     *slog.Logger

	clock          func() time.Time
	runTaskBackoff time.Duration
}

func New(repository persistence.ExecutionRepository, q queue.Queue, publisher events.Publisher, reg *registry.Registry, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		repository:     repository,
		queue:          q,
		publisher:      publisher,
		registry:       reg,
		logger:         logger,
		clock:          time.Now,
		runTaskBackoff: defaultRunTaskBackoff,
	}
}

// RegisterHandlers wires every message type to its handler on the queue.
func (o *Orchestrator) RegisterHandlers() {
	o.queue.Handle(messages.StartExecutionType, o.instrumented(messages.StartExecutionType, o.handleStartExecution))
	o.queue.Handle(messages.CompleteExecutionType, o.instrumented(messages.CompleteExecutionType, o.handleCompleteExecution))
	o.queue.Handle(messages.StartStageType, o.instrumented(messages.StartStageType, o.handleStartStage))
	o.queue.Handle(messages.CompleteStageType, o.instrumented(messages.CompleteStageType, o.handleCompleteStage))
	o.queue.Handle(messages.StartTaskType, o.instrumented(messages.StartTaskType, o.handleStartTask))
	o.queue.Handle(messages.RunTaskType, o.instrumented(messages.RunTaskType, o.handleRunTask))
	o.queue.Handle(messages.CompleteTaskType, o.instrumented(messages.CompleteTaskType, o.handleCompleteTask))
}

func (o *Orchestrator) instrumented(msgType messages.Type, handler queue.Handler) queue.Handler {
	return func(ctx context.Context, msg messages.Message) error {
		err := handler(ctx, msg)

		result := "ok"
		if err != nil {
			result = "error"
		}

		metrics.MessagesHandled.WithLabelValues(string(msgType), result).Inc()

		return err
	}
}

// publish emits a lifecycle event. Event delivery is fire-and-forget:
// a publish failure is logged, never surfaced, so it cannot trigger a
// redelivery of work that already persisted.
func (o *Orchestrator) publish(ctx context.Context, key string, event events.Event) {
	err := o.publisher.Publish(ctx, key, event)
	if err != nil {
		o.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.GetType(),
			"key", key,
			"error", err,
		)
	}
}

func (o *Orchestrator) baseEvent(eventType events.EventType, address messages.Address) events.BaseEvent {
	return events.BaseEvent{
		ID:            "evt-" + uuid.New().String()[:8],
		Type:          eventType,
		Timestamp:     o.clock(),
		ExecutionType: address.ExecutionType,
		ExecutionID:   address.ExecutionID,
	}
}

// stageAddress re-addresses a message's execution to another stage.
func stageAddress(address messages.Address, stageID string) messages.Address {
	return messages.Address{
		ExecutionType: address.ExecutionType,
		ExecutionID:   address.ExecutionID,
		StageID:       stageID,
	}
}

// taskAddress re-addresses a message's stage to one of its tasks.
func taskAddress(address messages.Address, stageID, taskID string) messages.Address {
	return messages.Address{
		ExecutionType: address.ExecutionType,
		ExecutionID:   address.ExecutionID,
		StageID:       stageID,
		TaskID:        taskID,
	}
}

func firstIncompleteStage(stages []*models.Stage) *models.Stage {
	for _, stage := range stages {
		if !stage.Status.IsComplete() {
			return stage
		}
	}

	return nil
}
