package orchestrator

import (
	"context"
	"fmt"

	"github.com/conveyor-cd/conveyor/pkg/events"
	"github.com/conveyor-cd/conveyor/pkg/messages"
	"github.com/conveyor-cd/conveyor/pkg/models"
)

// handleStartTask transitions a task from NOT_STARTED to RUNNING and
// enqueues the RunTask that will drive its implementation.
func (o *Orchestrator) handleStartTask(ctx context.Context, msg messages.Message) error {
	m, ok := msg.(*messages.StartTask)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedMessage, msg)
	}

	execution, err := o.repository.Retrieve(ctx, m.ExecutionType, m.ExecutionID)
	if err != nil {
		return err
	}

	if execution.Inactive() {
		o.logger.DebugContext(ctx, "Execution inactive, absorbing StartTask",
			"execution_id", m.ExecutionID,
			"status", execution.Status,
		)

		return nil
	}

	stage := execution.StageByID(m.StageID)
	if stage == nil {
		return fmt.Errorf("%w: %s", ErrStageNotFound, m.StageID)
	}

	task := stage.TaskByID(m.TaskID)
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, m.TaskID)
	}

	// Redelivery: a task already running or past it is not restarted.
	if task.Status != models.StatusNotStarted {
		return nil
	}

	// Resolve before mutating so an unregistered task type never leaves
	// a RUNNING task behind.
	_, err = o.registry.ResolveTask(task.ImplementingClass)
	if err != nil {
		return err
	}

	now := o.clock()
	task.Status = models.StatusRunning
	task.StartTime = &now

	err = o.repository.StoreStage(ctx, m.ExecutionType, m.ExecutionID, stage)
	if err != nil {
		return err
	}

	err = o.queue.Push(ctx, &messages.RunTask{
		Address:           m.Address,
		ImplementingClass: task.ImplementingClass,
	})
	if err != nil {
		return err
	}

	o.publish(ctx, m.Key(), events.TaskStarted{
		BaseEvent: o.baseEvent(events.TaskStartedEvent, m.Address),
		StageID:   stage.ID,
		TaskID:    task.ID,
		TaskName:  task.Name,
	})

	return nil
}

// handleRunTask invokes the task implementation and interprets its
// self-reported result: still-running tasks are re-enqueued with a
// backoff, completed tasks are recorded and handed to CompleteTask.
func (o *Orchestrator) handleRunTask(ctx context.Context, msg messages.Message) error {
	m, ok := msg.(*messages.RunTask)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedMessage, msg)
	}

	execution, err := o.repository.Retrieve(ctx, m.ExecutionType, m.ExecutionID)
	if err != nil {
		return err
	}

	if execution.Inactive() {
		return nil
	}

	stage := execution.StageByID(m.StageID)
	if stage == nil {
		return fmt.Errorf("%w: %s", ErrStageNotFound, m.StageID)
	}

	task := stage.TaskByID(m.TaskID)
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, m.TaskID)
	}

	// Only a durably RUNNING task is executed: a completed task absorbs
	// the redelivery, a NOT_STARTED one waits for its StartTask.
	if task.Status != models.StatusRunning {
		return nil
	}

	impl, err := o.registry.ResolveTask(m.ImplementingClass)
	if err != nil {
		return err
	}

	result, err := impl.Execute(ctx, stage)
	if err != nil {
		return err
	}

	if len(result.Outputs) > 0 {
		if stage.Context == nil {
			stage.Context = make(map[string]any, len(result.Outputs))
		}

		for key, value := range result.Outputs {
			stage.Context[key] = value
		}
	}

	// A still-running task keeps polling: persist whatever context it
	// accumulated so far and re-enqueue with a backoff.
	if result.Status == models.StatusRunning {
		if len(result.Outputs) > 0 {
			err = o.repository.StoreStage(ctx, m.ExecutionType, m.ExecutionID, stage)
			if err != nil {
				return err
			}
		}

		return o.queue.PushDelayed(ctx, m, o.runTaskBackoff)
	}

	now := o.clock()
	task.Status = result.Status
	task.EndTime = &now

	err = o.repository.StoreStage(ctx, m.ExecutionType, m.ExecutionID, stage)
	if err != nil {
		return err
	}

	err = o.queue.Push(ctx, &messages.CompleteTask{
		Address: m.Address,
		Status:  result.Status,
	})
	if err != nil {
		return err
	}

	o.publish(ctx, m.Key(), events.TaskCompleted{
		BaseEvent: o.baseEvent(events.TaskCompletedEvent, m.Address),
		StageID:   stage.ID,
		TaskID:    task.ID,
		TaskName:  task.Name,
		Status:    result.Status,
	})

	return nil
}

// handleCompleteTask sequences past a completed task: the next task of
// the stage, or the stage's own completion. A halting task status skips
// straight to CompleteStage.
func (o *Orchestrator) handleCompleteTask(ctx context.Context, msg messages.Message) error {
	m, ok := msg.(*messages.CompleteTask)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedMessage, msg)
	}

	execution, err := o.repository.Retrieve(ctx, m.ExecutionType, m.ExecutionID)
	if err != nil {
		return err
	}

	if execution.Inactive() {
		return nil
	}

	stage := execution.StageByID(m.StageID)
	if stage == nil {
		return fmt.Errorf("%w: %s", ErrStageNotFound, m.StageID)
	}

	task := stage.TaskByID(m.TaskID)
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, m.TaskID)
	}

	// The completion was not durably recorded yet; the RunTask
	// redelivery will re-emit this message.
	if !task.Status.IsComplete() {
		return nil
	}

	if !task.Status.IsHalt() {
		if next := stage.NextTask(task.ID); next != nil {
			return o.queue.Push(ctx, &messages.StartTask{
				Address: taskAddress(m.Address, stage.ID, next.ID),
			})
		}
	}

	return o.queue.Push(ctx, &messages.CompleteStage{
		Address: stageAddress(m.Address, stage.ID),
	})
}
