// Package rollout implements the stage graph builder: given a deploy
// stage's cluster configuration and a snapshot of existing deployable
// groups, it computes the synthetic before/after stages its declared
// strategy requires. The engine only plans; it executes nothing.
package rollout

import (
	"context"
	"log/slog"
	"sort"

	"github.com/conveyor-cd/conveyor/pkg/cloud"
	"github.com/conveyor-cd/conveyor/pkg/metrics"
	"github.com/conveyor-cd/conveyor/pkg/models"
)

// Stage types the engine synthesizes.
const (
	StageTypeDisableServerGroup = "disableServerGroup"
	StageTypeResizeServerGroup  = "resizeServerGroup"
	StageTypeDestroyServerGroup = "destroyServerGroup"
)

// Recognized context keys of synthetic stages. The region list is
// resolved at build time and recorded explicitly so downstream execution
// stays deterministic even if the source cluster config changes.
const (
	ContextKeyServerGroup   = "server_group_name"
	ContextKeyRegions       = "regions"
	ContextKeyAccount       = "account"
	ContextKeyCloudProvider = "cloud_provider"
	ContextKeyCapacity      = "capacity"
)

// Request is the ephemeral input of one graph computation.
type Request struct {
	Cluster        models.Cluster
	TargetRegions  []string
	ExistingGroups []models.ServerGroup
}

// Strategy computes the synthetic stage sequence for one rollout policy.
// Implementations must be pure: same request, same graph.
type Strategy interface {
	Name() string
	BuildGraph(ctx context.Context, req Request) (before, after []models.StageDescriptor, err error)
}

// Engine selects the strategy declared by a cluster and runs it against
// the cluster's existing groups. Unrecognized or absent strategy names
// degrade to "none"; a failing or empty group lookup degrades to zero
// synthetic stages, because a first deploy has nothing to roll off.
type Engine struct {
	resolver   cloud.Resolver
	strategies map[string]Strategy
	logger     *slog.Logger
}

func NewEngine(resolver cloud.Resolver, logger *slog.Logger) *Engine {
	engine := &Engine{
		resolver:   resolver,
		strategies: make(map[string]Strategy),
		logger:     logger,
	}

	engine.RegisterStrategy(None{})
	engine.RegisterStrategy(RedBlack{})
	engine.RegisterStrategy(Highlander{})

	return engine
}

func (e *Engine) RegisterStrategy(strategy Strategy) {
	e.strategies[strategy.Name()] = strategy
}

// Plan computes the before/after stage descriptors for a deploy of the
// given cluster.
func (e *Engine) Plan(ctx context.Context, cluster models.Cluster) (before, after []models.StageDescriptor, err error) {
	strategy, ok := e.strategies[cluster.Strategy]
	if !ok {
		if cluster.Strategy != "" {
			e.logger.Warn("unrecognized rollout strategy, treating as none",
				"strategy", cluster.Strategy,
				"cluster", cluster.Name(),
			)
		}

		strategy = None{}
	}

	groups, err := e.resolver.GetExistingGroups(ctx, cluster.Application, cluster.Account, cluster.Name(), cluster.CloudProvider)
	if err != nil {
		e.logger.Warn("existing group lookup failed, planning without synthetic stages",
			"cluster", cluster.Name(),
			"error", err,
		)

		groups = nil
	}

	before, after, err = strategy.BuildGraph(ctx, Request{
		Cluster:        cluster,
		TargetRegions:  cluster.TargetRegions(),
		ExistingGroups: groups,
	})
	if err != nil {
		return nil, nil, err
	}

	for _, descriptor := range append(append([]models.StageDescriptor{}, before...), after...) {
		metrics.SyntheticStagesBuilt.WithLabelValues(strategy.Name(), descriptor.Type).Inc()
	}

	return before, after, nil
}

// matchingRegion filters groups to those whose region is among the
// deploy's target regions, preserving input order.
func matchingRegion(groups []models.ServerGroup, targetRegions []string) []models.ServerGroup {
	targets := make(map[string]bool, len(targetRegions))
	for _, region := range targetRegions {
		targets[region] = true
	}

	var matched []models.ServerGroup

	for _, group := range groups {
		if targets[group.Region] {
			matched = append(matched, group)
		}
	}

	return matched
}

// oldestFirst orders groups by sequence ascending. The sort is stable:
// groups without a distinguishing sequence keep their input order.
func oldestFirst(groups []models.ServerGroup) []models.ServerGroup {
	ordered := make([]models.ServerGroup, len(groups))
	copy(ordered, groups)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	return ordered
}

func groupContext(cluster models.Cluster, group models.ServerGroup) map[string]any {
	return map[string]any{
		ContextKeyServerGroup:   group.Name,
		ContextKeyRegions:       []string{group.Region},
		ContextKeyAccount:       cluster.Account,
		ContextKeyCloudProvider: cluster.CloudProvider,
	}
}
