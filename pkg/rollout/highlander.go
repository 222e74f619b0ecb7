package rollout

import (
	"context"

	"github.com/conveyor-cd/conveyor/pkg/models"
)

// Highlander leaves only the new server group standing: every existing
// group is destroyed after the deploy, in any region. ScaleDown and
// MaxRemainingASGs are redblack settings and are ignored here.
type Highlander struct{}

func (Highlander) Name() string {
	return "highlander"
}

func (Highlander) BuildGraph(_ context.Context, req Request) (before, after []models.StageDescriptor, err error) {
	for _, group := range oldestFirst(req.ExistingGroups) {
		after = append(after, models.StageDescriptor{
			Type:    StageTypeDestroyServerGroup,
			Name:    "Destroy " + group.Name,
			Context: groupContext(req.Cluster, group),
		})
	}

	return nil, after, nil
}
