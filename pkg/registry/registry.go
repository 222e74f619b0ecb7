// Package registry maps declared task and stage type names to their
// concrete implementations. The registry is built once at process start
// and passed by reference into the orchestrator; it is never mutated
// while handlers are running.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/conveyor-cd/conveyor/pkg/protocol"
)

type Registry struct {
	logger        *slog.Logger
	tasks         map[string]protocol.Task
	stageBuilders map[string]protocol.StageBuilder
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:        log,
		tasks:         make(map[string]protocol.Task),
		stageBuilders: make(map[string]protocol.StageBuilder),
	}
}

func (r *Registry) RegisterTask(name string, task protocol.Task) {
	r.tasks[name] = task
}

func (r *Registry) RegisterStageBuilder(builder protocol.StageBuilder) {
	r.stageBuilders[builder.Type()] = builder
}

func (r *Registry) ResolveTask(name string) (protocol.Task, error) {
	task, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("task type '%s' not registered", name)
	}

	return task, nil
}

func (r *Registry) ResolveStageBuilder(stageType string) (protocol.StageBuilder, error) {
	builder, ok := r.stageBuilders[stageType]
	if !ok {
		return nil, fmt.Errorf("stage type '%s' not registered", stageType)
	}

	return builder, nil
}
