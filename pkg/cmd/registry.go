package cmd

import (
	"log/slog"

	"github.com/conveyor-cd/conveyor/pkg/cloud"
	"github.com/conveyor-cd/conveyor/pkg/registry"
	"github.com/conveyor-cd/conveyor/pkg/rollout"
	"github.com/conveyor-cd/conveyor/pkg/stages"
	"github.com/conveyor-cd/conveyor/pkg/tasks/wait"
)

// NewRegistry builds the resolver registry with the built-in stage
// builders and tasks. Cloud-mutating task implementations are supplied
// by the embedding deployment and registered on top of this.
func NewRegistry(logger *slog.Logger, resolver cloud.Resolver) *registry.Registry {
	engine := rollout.NewEngine(resolver, logger)

	reg := registry.NewRegistry(logger)
	reg.RegisterStageBuilder(stages.NewDeployBuilder(engine))
	reg.RegisterStageBuilder(stages.NewDisableServerGroupBuilder())
	reg.RegisterStageBuilder(stages.NewResizeServerGroupBuilder())
	reg.RegisterStageBuilder(stages.NewDestroyServerGroupBuilder())
	reg.RegisterStageBuilder(stages.WaitBuilder{})

	reg.RegisterTask("wait", wait.NewTask())

	return reg
}
