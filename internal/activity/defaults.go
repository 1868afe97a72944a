package activity

import "context"

// Defaults exposes worker configuration to workflows. Workflows read it
// through an activity so the values land in workflow history: a config
// change then affects new runs without breaking replay of running ones.
type Defaults struct {
	resourceGroupPrefix string
	defaultLocation     string
}

func NewDefaults(resourceGroupPrefix, defaultLocation string) *Defaults {
	return &Defaults{resourceGroupPrefix: resourceGroupPrefix, defaultLocation: defaultLocation}
}

type ProvisionDefaults struct {
	ResourceGroupPrefix string `json:"resource_group_prefix"`
	DefaultLocation     string `json:"default_location"`
}

func (a *Defaults) GetProvisionDefaults(ctx context.Context) (*ProvisionDefaults, error) {
	return &ProvisionDefaults{
		ResourceGroupPrefix: a.resourceGroupPrefix,
		DefaultLocation:     a.defaultLocation,
	}, nil
}
