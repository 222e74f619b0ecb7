package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/conveyor-cd/conveyor/pkg/events"
	"github.com/conveyor-cd/conveyor/pkg/messages"
	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/conveyor-cd/conveyor/pkg/protocol"
)

// handleStartStage expands a stage on first delivery (static task list
// from its builder, synthetic before/after stages from a graph-aware
// builder) and sequences its first unit of work.
func (o *Orchestrator) handleStartStage(ctx context.Context, msg messages.Message) error {
	m, ok := msg.(*messages.StartStage)
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

	// Redelivery: a stage already running or past it is not restarted.
	if stage.Status != models.StatusNotStarted {
		return nil
	}

	builder, err := o.registry.ResolveStageBuilder(stage.Type)
	if err != nil {
		return err
	}

	if !stage.Expanded() {
		err = o.expandStage(ctx, stage, builder)
		if err != nil {
			return err
		}
	}

	now := o.clock()
	stage.Status = models.StatusRunning
	stage.StartTime = &now

	err = o.repository.StoreStage(ctx, m.ExecutionType, m.ExecutionID, stage)
	if err != nil {
		return err
	}

	var next messages.Message

	switch {
	case len(stage.BeforeStages) > 0:
		next = &messages.StartStage{Address: stageAddress(m.Address, stage.BeforeStages[0].ID)}
	case len(stage.Tasks) > 0:
		next = &messages.StartTask{Address: taskAddress(m.Address, stage.ID, stage.Tasks[0].ID)}
	default:
		next = &messages.CompleteStage{Address: stageAddress(m.Address, stage.ID)}
	}

	err = o.queue.Push(ctx, next)
	if err != nil {
		return err
	}

	o.publish(ctx, m.Key(), events.StageStarted{
		BaseEvent: o.baseEvent(events.StageStartedEvent, m.Address),
		StageID:   stage.ID,
		StageType: stage.Type,
	})

	return nil
}

func (o *Orchestrator) expandStage(ctx context.Context, stage *models.Stage, builder protocol.StageBuilder) error {
	for i, descriptor := range builder.TaskGraph(stage) {
		stage.Tasks = append(stage.Tasks, &models.Task{
			ID:                strconv.Itoa(i + 1),
			Name:              descriptor.Name,
			ImplementingClass: descriptor.ImplementingClass,
			Status:            models.StatusNotStarted,
		})
	}

	graphAware, ok := builder.(protocol.GraphAware)
	if !ok {
		return nil
	}

	before, after, err := graphAware.BuildGraph(ctx, stage)
	if err != nil {
		return err
	}

	stage.BeforeStages = materializeStages(stage, before, "before")
	stage.AfterStages = materializeStages(stage, after, "after")

	if len(stage.BeforeStages) > 0 || len(stage.AfterStages) > 0 {
		o.logger.InfoContext(ctx, "Injected synthetic stages",
			"stage_id", stage.ID,
			"before", len(stage.BeforeStages),
			"after", len(stage.AfterStages),
		)
	}

	return nil
}

// materializeStages turns graph descriptors into stages the state
// machine drives exactly like authored ones.
func materializeStages(parent *models.Stage, descriptors []models.StageDescriptor, position string) []*models.Stage {
	if len(descriptors) == 0 {
		return nil
	}

	stages := make([]*models.Stage, 0, len(descriptors))

	for i, descriptor := range descriptors {
		stages = append(stages, &models.Stage{
			ID:            parent.ID + "-" + position + "-" + strconv.Itoa(i+1),
			Type:          descriptor.Type,
			Name:          descriptor.Name,
			Status:        models.StatusNotStarted,
			Context:       descriptor.Context,
			ParentStageID: parent.ID,
		})
	}

	return stages
}

// handleCompleteStage confirms where the stage stands: it finalizes the
// stage when every task and injected stage reached a complete status,
// and otherwise sequences the next pending unit. Tasks and injected
// stages may complete in any order; this handler only ever looks at the
// persisted statuses.
func (o *Orchestrator) handleCompleteStage(ctx context.Context, msg messages.Message) error {
	m, ok := msg.(*messages.CompleteStage)
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

	// Only a running stage can complete; complete ones absorb the
	// redelivery, not-started ones wait for their StartStage.
	if stage.Status != models.StatusRunning {
		return nil
	}

	aggregate := stage.AggregateStatus()
	if aggregate.IsComplete() {
		return o.finalizeStage(ctx, m, execution, stage, aggregate)
	}

	if next := firstIncompleteStage(stage.BeforeStages); next != nil {
		if next.Status == models.StatusNotStarted {
			return o.queue.Push(ctx, &messages.StartStage{Address: stageAddress(m.Address, next.ID)})
		}

		return nil
	}

	if task := stage.FirstIncompleteTask(); task != nil {
		if task.Status == models.StatusNotStarted {
			return o.queue.Push(ctx, &messages.StartTask{Address: taskAddress(m.Address, stage.ID, task.ID)})
		}

		return nil
	}

	if next := firstIncompleteStage(stage.AfterStages); next != nil {
		if next.Status == models.StatusNotStarted {
			return o.queue.Push(ctx, &messages.StartStage{Address: stageAddress(m.Address, next.ID)})
		}

		return nil
	}

	return nil
}

// finalizeStage records the stage's terminal status and advances the
// chain: the parent stage for synthetic stages, the next sibling stage
// for authored ones, or the execution's own completion.
func (o *Orchestrator) finalizeStage(ctx context.Context, m *messages.CompleteStage, execution *models.Execution, stage *models.Stage, status models.Status) error {
	now := o.clock()
	stage.Status = status
	stage.EndTime = &now

	err := o.repository.StoreStage(ctx, m.ExecutionType, m.ExecutionID, stage)
	if err != nil {
		return err
	}

	var next messages.Message

	switch {
	case stage.ParentStageID != "":
		next = &messages.CompleteStage{Address: stageAddress(m.Address, stage.ParentStageID)}
	case status.IsHalt():
		next = &messages.CompleteExecution{Address: messages.Address{
			ExecutionType: m.ExecutionType,
			ExecutionID:   m.ExecutionID,
		}}
	default:
		if sibling := execution.NextStage(stage.ID); sibling != nil {
			next = &messages.StartStage{Address: stageAddress(m.Address, sibling.ID)}
		} else {
			next = &messages.CompleteExecution{Address: messages.Address{
				ExecutionType: m.ExecutionType,
				ExecutionID:   m.ExecutionID,
			}}
		}
	}

	err = o.queue.Push(ctx, next)
	if err != nil {
		return err
	}

	o.publish(ctx, m.Key(), events.StageCompleted{
		BaseEvent: o.baseEvent(events.StageCompletedEvent, m.Address),
		StageID:   stage.ID,
		StageType: stage.Type,
		Status:    status,
	})

	return nil
}
