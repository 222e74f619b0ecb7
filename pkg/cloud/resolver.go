// Package cloud defines the contract to the cloud provider client the
// rollout engine consults. The concrete client lives outside this
// module; a static resolver is provided for tests and dry runs.
package cloud

import (
	"context"

	"github.com/conveyor-cd/conveyor/pkg/models"
)

// Resolver enumerates the currently existing deployable groups of a
// cluster.
type Resolver interface {
	GetExistingGroups(ctx context.Context, application, account, clusterName, cloudProvider string) ([]models.ServerGroup, error)
}

// StaticResolver serves a fixed set of groups. Useful for tests and for
// planning rollout graphs against a known snapshot.
type StaticResolver struct {
	Groups []models.ServerGroup
}

func (r StaticResolver) GetExistingGroups(_ context.Context, _, _, _, _ string) ([]models.ServerGroup, error) {
	return r.Groups, nil
}
