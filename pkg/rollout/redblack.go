package rollout

import (
	"context"

	"github.com/conveyor-cd/conveyor/pkg/models"
)

// RedBlack keeps old server groups around, disabled, after a deploy.
// Groups in the target regions are disabled once the deploy completes;
// ScaleDown inserts a resize-to-zero immediately before each disable.
// MaxRemainingASGs caps how many old groups survive: the oldest excess
// groups are destroyed instead of disabled, after all disables.
type RedBlack struct{}

func (RedBlack) Name() string {
	return "redblack"
}

func (RedBlack) BuildGraph(_ context.Context, req Request) (before, after []models.StageDescriptor, err error) {
	cluster := req.Cluster

	matched := oldestFirst(matchingRegion(req.ExistingGroups, req.TargetRegions))

	// MaxRemainingASGs <= 0 disables the destroy feature entirely; the
	// engine never destroys down to zero groups on its own.
	destroyCount := 0
	if keep := cluster.MaxRemainingASGs; keep >= 1 && len(matched) > keep {
		destroyCount = len(matched) - keep
	}

	destroyed := matched[:destroyCount]
	kept := matched[destroyCount:]

	for _, group := range kept {
		if cluster.ScaleDown {
			resizeContext := groupContext(cluster, group)
			resizeContext[ContextKeyCapacity] = models.Capacity{Min: 0, Max: 0, Desired: 0}

			after = append(after, models.StageDescriptor{
				Type:    StageTypeResizeServerGroup,
				Name:    "Shrink " + group.Name,
				Context: resizeContext,
			})
		}

		after = append(after, models.StageDescriptor{
			Type:    StageTypeDisableServerGroup,
			Name:    "Disable " + group.Name,
			Context: groupContext(cluster, group),
		})
	}

	for _, group := range destroyed {
		after = append(after, models.StageDescriptor{
			Type:    StageTypeDestroyServerGroup,
			Name:    "Destroy " + group.Name,
			Context: groupContext(cluster, group),
		})
	}

	return nil, after, nil
}
