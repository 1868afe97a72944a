package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armpolicy"
)

// Built-in policy definition GUIDs.
const (
	policyAllowedLocations     = "e56962a6-4747-49cd-b67b-bf8b01975c4c"
	policyAllowedResourceTypes = "a08ec900-254a-4555-9bf5-e42af04b5c5c"
)

// Policy applies guardrail policy assignments at resource group scope.
type Policy struct {
	cred azcore.TokenCredential
}

func NewPolicy(cred azcore.TokenCredential) *Policy {
	return &Policy{cred: cred}
}

type GuardrailParams struct {
	SubscriptionID string
	ResourceGroup  string
	// AllowedLocations restricts where resources may be created. Empty
	// means no location policy is assigned.
	AllowedLocations []string
	// AllowedResourceTypes restricts which resource types may be created.
	// Empty means no resource type policy is assigned.
	AllowedResourceTypes []string
}

// ApplyGuardrails assigns the allowed-locations and allowed-resource-types
// built-in policies to a participant's resource group. Assignments are
// created with fixed names, so a retried step overwrites rather than
// duplicates.
func (p *Policy) ApplyGuardrails(ctx context.Context, params GuardrailParams) error {
	client, err := armpolicy.NewAssignmentsClient(params.SubscriptionID, p.cred, nil)
	if err != nil {
		return fmt.Errorf("create policy assignments client: %w", err)
	}

	scope := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s", params.SubscriptionID, params.ResourceGroup)

	if len(params.AllowedLocations) > 0 {
		err := p.assign(ctx, client, scope, "allowed-locations", policyAllowedLocations,
			"listOfAllowedLocations", params.AllowedLocations)
		if err != nil {
			return err
		}
	}

	if len(params.AllowedResourceTypes) > 0 {
		err := p.assign(ctx, client, scope, "allowed-resource-types", policyAllowedResourceTypes,
			"listOfResourceTypesAllowed", params.AllowedResourceTypes)
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Policy) assign(ctx context.Context, client *armpolicy.AssignmentsClient, scope, name, definitionGUID, paramName string, values []string) error {
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = v
	}

	definitionID := "/providers/Microsoft.Authorization/policyDefinitions/" + definitionGUID

	_, err := client.Create(ctx, scope, name, armpolicy.Assignment{
		Properties: &armpolicy.AssignmentProperties{
			PolicyDefinitionID: to.Ptr(definitionID),
			Parameters: map[string]*armpolicy.ParameterValuesValue{
				paramName: {Value: list},
			},
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("assign policy %s on %s: %w", name, scope, err)
	}
	return nil
}
