package models

import (
	"sort"
	"strings"
)

// Capacity is the desired instance count envelope for a deployable group.
type Capacity struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Desired int `json:"desired"`
}

// Cluster describes the deploy target of a deploy stage: where new
// groups are created and which rollout strategy surrounds them.
type Cluster struct {
	Application       string              `json:"application"        validate:"required"`
	Account           string              `json:"account"            validate:"required"`
	Stack             string              `json:"stack,omitempty"`
	FreeFormDetails   string              `json:"free_form_details,omitempty"`
	CloudProvider     string              `json:"cloud_provider,omitempty"`
	Strategy          string              `json:"strategy,omitempty"`
	Capacity          Capacity            `json:"capacity"`
	ScaleDown         bool                `json:"scale_down,omitempty"`
	MaxRemainingASGs  int                 `json:"max_remaining_asgs,omitempty"`
	AvailabilityZones map[string][]string `json:"availability_zones,omitempty"`
}

// Name derives the cluster name from its parts, e.g. "app-stack-detail".
func (c Cluster) Name() string {
	parts := []string{c.Application}
	if c.Stack != "" {
		parts = append(parts, c.Stack)
	}

	if c.FreeFormDetails != "" {
		parts = append(parts, c.FreeFormDetails)
	}

	return strings.Join(parts, "-")
}

// TargetRegions returns the regions the cluster deploys into.
func (c Cluster) TargetRegions() []string {
	regions := make([]string, 0, len(c.AvailabilityZones))
	for region := range c.AvailabilityZones {
		regions = append(regions, region)
	}

	sort.Strings(regions)

	return regions
}

// ServerGroup is a snapshot of one existing deployable group: a
// versioned, regionally scoped set of running instances.
type ServerGroup struct {
	Name     string `json:"name"`
	Region   string `json:"region"`
	Sequence int    `json:"sequence"`
}
