package azure

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/google/uuid"
)

// Built-in role definition GUIDs assignable to participants.
var builtinRoles = map[string]string{
	"Contributor": "b24988ac-6180-42a0-ab88-20f7382dd24c",
	"Reader":      "acdd72a7-3385-48ef-bd42-f606fba81ae7",
	"Owner":       "8e3af657-a8ff-443c-a75c-2fe8c4bcb635",
}

// Resources wraps the ARM management-plane operations used during
// participant provisioning and teardown. Clients are created per
// subscription on demand.
type Resources struct {
	cred azcore.TokenCredential
}

func NewResources(cred azcore.TokenCredential) *Resources {
	return &Resources{cred: cred}
}

type ResourceGroupParams struct {
	SubscriptionID string
	Name           string
	Location       string
	Tags           map[string]string
}

// CreateResourceGroup creates or updates a resource group. CreateOrUpdate
// is idempotent, so a retried step converges without special handling.
func (r *Resources) CreateResourceGroup(ctx context.Context, params ResourceGroupParams) error {
	client, err := armresources.NewResourceGroupsClient(params.SubscriptionID, r.cred, nil)
	if err != nil {
		return fmt.Errorf("create resource groups client: %w", err)
	}

	tags := make(map[string]*string, len(params.Tags))
	for k, v := range params.Tags {
		tags[k] = to.Ptr(v)
	}

	_, err = client.CreateOrUpdate(ctx, params.Name, armresources.ResourceGroup{
		Location: to.Ptr(params.Location),
		Tags:     tags,
	}, nil)
	if err != nil {
		return fmt.Errorf("create resource group %s: %w", params.Name, err)
	}
	return nil
}

// DeleteResourceGroup starts deletion of a resource group. Acceptance of the
// delete request counts as success; ARM finishes the teardown asynchronously.
// A missing group counts as already deleted.
func (r *Resources) DeleteResourceGroup(ctx context.Context, subscriptionID, name string) error {
	client, err := armresources.NewResourceGroupsClient(subscriptionID, r.cred, nil)
	if err != nil {
		return fmt.Errorf("create resource groups client: %w", err)
	}

	_, err = client.BeginDelete(ctx, name, nil)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete resource group %s: %w", name, err)
	}
	return nil
}

type DeployParams struct {
	SubscriptionID string
	ResourceGroup  string
	DeploymentName string
	// Template is the raw ARM template JSON document.
	Template []byte
	// Parameters maps parameter names to values in ARM parameter format.
	Parameters map[string]any
}

// DeployTemplate runs an incremental ARM deployment into a participant's
// resource group and waits for it to finish.
func (r *Resources) DeployTemplate(ctx context.Context, params DeployParams) error {
	client, err := armresources.NewDeploymentsClient(params.SubscriptionID, r.cred, nil)
	if err != nil {
		return fmt.Errorf("create deployments client: %w", err)
	}

	var template map[string]any
	if err := json.Unmarshal(params.Template, &template); err != nil {
		return fmt.Errorf("parse deployment template: %w", err)
	}

	parameters := make(map[string]any, len(params.Parameters))
	for name, value := range params.Parameters {
		parameters[name] = map[string]any{"value": value}
	}

	poller, err := client.BeginCreateOrUpdate(ctx, params.ResourceGroup, params.DeploymentName, armresources.Deployment{
		Properties: &armresources.DeploymentProperties{
			Mode:       to.Ptr(armresources.DeploymentModeIncremental),
			Template:   template,
			Parameters: parameters,
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("start deployment %s: %w", params.DeploymentName, err)
	}

	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("deployment %s: %w", params.DeploymentName, err)
	}
	return nil
}

type RoleAssignmentParams struct {
	SubscriptionID string
	ResourceGroup  string
	ObjectID       string
	RoleName       string
}

// AssignRole grants a built-in role to a participant at resource group
// scope. An assignment that already exists counts as success.
func (r *Resources) AssignRole(ctx context.Context, params RoleAssignmentParams) error {
	roleGUID, ok := builtinRoles[params.RoleName]
	if !ok {
		return fmt.Errorf("unknown role %q", params.RoleName)
	}

	client, err := armauthorization.NewRoleAssignmentsClient(params.SubscriptionID, r.cred, nil)
	if err != nil {
		return fmt.Errorf("create role assignments client: %w", err)
	}

	scope := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s", params.SubscriptionID, params.ResourceGroup)
	roleDefinitionID := fmt.Sprintf("/subscriptions/%s/providers/Microsoft.Authorization/roleDefinitions/%s", params.SubscriptionID, roleGUID)

	_, err = client.Create(ctx, scope, uuid.New().String(), armauthorization.RoleAssignmentCreateParameters{
		Properties: &armauthorization.RoleAssignmentProperties{
			PrincipalID:      to.Ptr(params.ObjectID),
			PrincipalType:    to.Ptr(armauthorization.PrincipalTypeUser),
			RoleDefinitionID: to.Ptr(roleDefinitionID),
		},
	}, nil)
	if err != nil {
		if IsConflict(err) {
			return nil
		}
		return fmt.Errorf("assign role %s on %s: %w", params.RoleName, params.ResourceGroup, err)
	}
	return nil
}
