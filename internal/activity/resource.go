package activity

import (
	"context"
	"fmt"

	"github.com/trainops/workshop-portal/internal/azure"
)

// ResourceClient covers the ARM operations used during provisioning and
// teardown. *azure.Resources satisfies this interface.
type ResourceClient interface {
	CreateResourceGroup(ctx context.Context, params azure.ResourceGroupParams) error
	DeleteResourceGroup(ctx context.Context, subscriptionID, name string) error
	DeployTemplate(ctx context.Context, params azure.DeployParams) error
	AssignRole(ctx context.Context, params azure.RoleAssignmentParams) error
}

// PolicyClient applies guardrail policies. *azure.Policy satisfies this
// interface.
type PolicyClient interface {
	ApplyGuardrails(ctx context.Context, params azure.GuardrailParams) error
}

// Resource contains activities that manage participant Azure resources.
type Resource struct {
	resources ResourceClient
	policy    PolicyClient
	role      string
}

func NewResource(resources ResourceClient, policy PolicyClient, role string) *Resource {
	return &Resource{resources: resources, policy: policy, role: role}
}

type CreateResourceGroupParams struct {
	SubscriptionID string `json:"subscription_id"`
	Name           string `json:"name"`
	Location       string `json:"location"`
	WorkshopID     string `json:"workshop_id"`
	Alias          string `json:"alias"`
}

func (a *Resource) CreateResourceGroup(ctx context.Context, params CreateResourceGroupParams) error {
	return a.resources.CreateResourceGroup(ctx, azure.ResourceGroupParams{
		SubscriptionID: params.SubscriptionID,
		Name:           params.Name,
		Location:       params.Location,
		Tags: map[string]string{
			"workshop-id": params.WorkshopID,
			"participant": params.Alias,
			"managed-by":  "workshop-portal",
		},
	})
}

type AssignRoleParams struct {
	SubscriptionID string `json:"subscription_id"`
	ResourceGroup  string `json:"resource_group"`
	ObjectID       string `json:"object_id"`
}

func (a *Resource) AssignRole(ctx context.Context, params AssignRoleParams) error {
	return a.resources.AssignRole(ctx, azure.RoleAssignmentParams{
		SubscriptionID: params.SubscriptionID,
		ResourceGroup:  params.ResourceGroup,
		ObjectID:       params.ObjectID,
		RoleName:       a.role,
	})
}

type DeployTemplateParams struct {
	SubscriptionID string         `json:"subscription_id"`
	ResourceGroup  string         `json:"resource_group"`
	WorkshopID     string         `json:"workshop_id"`
	Template       string         `json:"template"`
	Parameters     map[string]any `json:"parameters"`
}

func (a *Resource) DeployTemplate(ctx context.Context, params DeployTemplateParams) error {
	return a.resources.DeployTemplate(ctx, azure.DeployParams{
		SubscriptionID: params.SubscriptionID,
		ResourceGroup:  params.ResourceGroup,
		DeploymentName: fmt.Sprintf("workshop-%s", params.WorkshopID),
		Template:       []byte(params.Template),
		Parameters:     params.Parameters,
	})
}

type ApplyGuardrailsParams struct {
	SubscriptionID       string   `json:"subscription_id"`
	ResourceGroup        string   `json:"resource_group"`
	AllowedLocations     []string `json:"allowed_locations"`
	AllowedResourceTypes []string `json:"allowed_resource_types"`
}

func (a *Resource) ApplyGuardrails(ctx context.Context, params ApplyGuardrailsParams) error {
	return a.policy.ApplyGuardrails(ctx, azure.GuardrailParams{
		SubscriptionID:       params.SubscriptionID,
		ResourceGroup:        params.ResourceGroup,
		AllowedLocations:     params.AllowedLocations,
		AllowedResourceTypes: params.AllowedResourceTypes,
	})
}

type DeleteResourceGroupParams struct {
	SubscriptionID string `json:"subscription_id"`
	Name           string `json:"name"`
}

// DeleteResourceGroup starts teardown of a participant resource group.
// Acceptance counts as success; a missing group counts as deleted.
func (a *Resource) DeleteResourceGroup(ctx context.Context, params DeleteResourceGroupParams) error {
	return a.resources.DeleteResourceGroup(ctx, params.SubscriptionID, params.Name)
}
