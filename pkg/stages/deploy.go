// Package stages provides the built-in stage builders: deploy plus the
// synthetic server-group stages the rollout engine splices around it.
// Task implementations behind the declared task names are registered
// separately; builders only declare structure.
package stages

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conveyor-cd/conveyor/pkg/models"
	"github.com/conveyor-cd/conveyor/pkg/rollout"
)

// ContextKeyCluster is the deploy stage context key holding the cluster
// descriptor the rollout engine plans against.
const ContextKeyCluster = "cluster"

// DeployBuilder expands a deploy stage and asks the rollout engine for
// the synthetic stages its cluster's strategy requires.
type DeployBuilder struct {
	engine *rollout.Engine
}

func NewDeployBuilder(engine *rollout.Engine) *DeployBuilder {
	return &DeployBuilder{engine: engine}
}

func (b *DeployBuilder) Type() string {
	return "deploy"
}

func (b *DeployBuilder) TaskGraph(_ *models.Stage) []models.TaskDescriptor {
	return []models.TaskDescriptor{
		{Name: "Create Server Group", ImplementingClass: "createServerGroup"},
		{Name: "Wait For Up Instances", ImplementingClass: "waitForUpInstances"},
	}
}

func (b *DeployBuilder) BuildGraph(ctx context.Context, stage *models.Stage) (before, after []models.StageDescriptor, err error) {
	cluster, err := ClusterFromContext(stage)
	if err != nil {
		// A deploy without a parseable cluster still runs its own
		// tasks; there is nothing to plan a rollout against.
		return nil, nil, nil
	}

	return b.engine.Plan(ctx, cluster)
}

// ClusterFromContext decodes the cluster descriptor from the stage
// context blackboard.
func ClusterFromContext(stage *models.Stage) (models.Cluster, error) {
	raw, ok := stage.Context[ContextKeyCluster]
	if !ok {
		return models.Cluster{}, fmt.Errorf("stage %s has no %q context entry", stage.ID, ContextKeyCluster)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return models.Cluster{}, err
	}

	var cluster models.Cluster

	err = json.Unmarshal(data, &cluster)
	if err != nil {
		return models.Cluster{}, fmt.Errorf("stage %s cluster context is malformed: %w", stage.ID, err)
	}

	return cluster, nil
}
