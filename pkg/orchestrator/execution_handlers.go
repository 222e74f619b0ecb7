package orchestrator

import (
	"context"
	"fmt"

	"github.com/conveyor-cd/conveyor/pkg/events"
	"github.com/conveyor-cd/conveyor/pkg/messages"
	"github.com/conveyor-cd/conveyor/pkg/metrics"
	"github.com/conveyor-cd/conveyor/pkg/models"
)

// handleStartExecution marks the execution RUNNING and kicks off its
// first stage.
func (o *Orchestrator) handleStartExecution(ctx context.Context, msg messages.Message) error {
	m, ok := msg.(*messages.StartExecution)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedMessage, msg)
	}

	execution, err := o.repository.Retrieve(ctx, m.ExecutionType, m.ExecutionID)
	if err != nil {
		return err
	}

	// Redelivery, cancellation before start, or a paused trigger all
	// absorb without mutation.
	if execution.Status != models.StatusNotStarted {
		return nil
	}

	err = o.repository.StoreStatus(ctx, m.ExecutionType, m.ExecutionID, models.StatusRunning, o.clock())
	if err != nil {
		return err
	}

	var next messages.Message

	if len(execution.Stages) == 0 {
		next = &messages.CompleteExecution{Address: m.Address}
	} else {
		next = &messages.StartStage{Address: stageAddress(m.Address, execution.Stages[0].ID)}
	}

	err = o.queue.Push(ctx, next)
	if err != nil {
		return err
	}

	o.publish(ctx, m.Key(), events.ExecutionStarted{
		BaseEvent:   o.baseEvent(events.ExecutionStartedEvent, m.Address),
		Application: execution.Application,
	})

	return nil
}

// handleCompleteExecution aggregates the top-level stage outcomes into
// the overall execution status.
func (o *Orchestrator) handleCompleteExecution(ctx context.Context, msg messages.Message) error {
	m, ok := msg.(*messages.CompleteExecution)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedMessage, msg)
	}

	execution, err := o.repository.Retrieve(ctx, m.ExecutionType, m.ExecutionID)
	if err != nil {
		return err
	}

	// Already terminal: redelivery absorbs.
	if execution.Status.IsComplete() {
		return nil
	}

	aggregate := execution.AggregateStatus()
	if !aggregate.IsComplete() {
		// Stages are still in flight and none halted; a later
		// CompleteStage will re-emit this message.
		return nil
	}

	err = o.repository.StoreStatus(ctx, m.ExecutionType, m.ExecutionID, aggregate, o.clock())
	if err != nil {
		return err
	}

	metrics.ExecutionsCompleted.WithLabelValues(string(aggregate)).Inc()

	o.logger.InfoContext(ctx, "Execution completed",
		"execution_id", m.ExecutionID,
		"execution_type", m.ExecutionType,
		"status", aggregate,
	)

	o.publish(ctx, m.Key(), events.ExecutionCompleted{
		BaseEvent: o.baseEvent(events.ExecutionCompletedEvent, m.Address),
		Status:    aggregate,
	})

	return nil
}
