package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/trainops/workshop-portal/internal/activity"
	"github.com/trainops/workshop-portal/internal/model"
)

type ProvisionParticipantParams struct {
	WorkshopID      string   `json:"workshop_id"`
	ParticipantID   string   `json:"participant_id"`
	Alias           string   `json:"alias"`
	ResourceGroup   string   `json:"resource_group"`
	Location        string   `json:"location"`
	Template        string   `json:"template"`
	AllowedRegions  []string `json:"allowed_regions"`
	AllowedServices []string `json:"allowed_services"`
}

// ProvisionResult is what a participant provisioning run produced. The
// credential fields feed the workshop's one-time credentials artifact.
type ProvisionResult struct {
	ParticipantID  string `json:"participant_id"`
	Alias          string `json:"alias"`
	UPN            string `json:"upn"`
	Password       string `json:"password"`
	SubscriptionID string `json:"subscription_id"`
	ResourceGroup  string `json:"resource_group"`
	Succeeded      bool   `json:"succeeded"`
	Message        string `json:"message"`
}

// ProvisionParticipantWorkflow builds one participant environment: a
// directory account, a subscription assignment, a resource group with the
// participant role, the workshop template deployment, and guardrail
// policies. Every step writes its output to the participant row as soon as
// it lands, so a failed run leaves enough state behind for teardown.
func ProvisionParticipantWorkflow(ctx workflow.Context, params ProvisionParticipantParams) (*ProvisionResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	result := &ProvisionResult{ParticipantID: params.ParticipantID, Alias: params.Alias}

	// Set status to provisioning.
	err := workflow.ExecuteActivity(ctx, "UpdateParticipantStatus", activity.UpdateParticipantStatusParams{
		ParticipantID: params.ParticipantID,
		Status:        model.StatusProvisioning,
	}).Get(ctx, nil)
	if err != nil {
		return failResult(ctx, result, err)
	}

	// Pick a subscription.
	var subscriptionID string
	err = workflow.ExecuteActivity(ctx, "AllocateSubscription", activity.AllocateSubscriptionParams{
		ParticipantID: params.ParticipantID,
	}).Get(ctx, &subscriptionID)
	if err != nil {
		return failResult(ctx, result, err)
	}
	result.SubscriptionID = subscriptionID

	// Create the directory account.
	var account activity.CreateAccountResult
	err = workflow.ExecuteActivity(ctx, "CreateAccount", activity.CreateAccountParams{
		Alias: params.Alias,
	}).Get(ctx, &account)
	if err != nil {
		return failResult(ctx, result, err)
	}
	result.UPN = account.UPN
	result.Password = account.Password

	err = workflow.ExecuteActivity(ctx, "SetParticipantIdentity", activity.SetParticipantIdentityParams{
		ParticipantID: params.ParticipantID,
		UPN:           account.UPN,
		ObjectID:      account.ObjectID,
	}).Get(ctx, nil)
	if err != nil {
		return failResult(ctx, result, err)
	}

	// Create the resource group.
	err = workflow.ExecuteActivity(ctx, "CreateResourceGroup", activity.CreateResourceGroupParams{
		SubscriptionID: subscriptionID,
		Name:           params.ResourceGroup,
		Location:       params.Location,
		WorkshopID:     params.WorkshopID,
		Alias:          params.Alias,
	}).Get(ctx, nil)
	if err != nil {
		return failResult(ctx, result, err)
	}
	result.ResourceGroup = params.ResourceGroup

	err = workflow.ExecuteActivity(ctx, "SetParticipantResourceGroup", activity.SetParticipantResourceGroupParams{
		ParticipantID: params.ParticipantID,
		ResourceGroup: params.ResourceGroup,
	}).Get(ctx, nil)
	if err != nil {
		return failResult(ctx, result, err)
	}

	// Grant the participant role on the resource group.
	err = workflow.ExecuteActivity(ctx, "AssignRole", activity.AssignRoleParams{
		SubscriptionID: subscriptionID,
		ResourceGroup:  params.ResourceGroup,
		ObjectID:       account.ObjectID,
	}).Get(ctx, nil)
	if err != nil {
		return failResult(ctx, result, err)
	}

	// Deploy the workshop template. Deployments poll to completion and can
	// run long, so they get their own timeout.
	if params.Template != "" {
		deployCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 30 * time.Minute,
			RetryPolicy: &temporal.RetryPolicy{
				MaximumAttempts: 3,
			},
		})
		err = workflow.ExecuteActivity(deployCtx, "DeployTemplate", activity.DeployTemplateParams{
			SubscriptionID: subscriptionID,
			ResourceGroup:  params.ResourceGroup,
			WorkshopID:     params.WorkshopID,
			Template:       params.Template,
		}).Get(ctx, nil)
		if err != nil {
			return failResult(ctx, result, err)
		}
	}

	// Pin guardrail policies to the resource group.
	if len(params.AllowedRegions) > 0 || len(params.AllowedServices) > 0 {
		err = workflow.ExecuteActivity(ctx, "ApplyGuardrails", activity.ApplyGuardrailsParams{
			SubscriptionID:       subscriptionID,
			ResourceGroup:        params.ResourceGroup,
			AllowedLocations:     params.AllowedRegions,
			AllowedResourceTypes: params.AllowedServices,
		}).Get(ctx, nil)
		if err != nil {
			return failResult(ctx, result, err)
		}
	}

	// Set status to active.
	err = workflow.ExecuteActivity(ctx, "MarkParticipantActive", params.ParticipantID).Get(ctx, nil)
	if err != nil {
		return failResult(ctx, result, err)
	}

	result.Succeeded = true
	return result, nil
}
