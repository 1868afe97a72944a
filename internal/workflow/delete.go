package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/trainops/workshop-portal/internal/activity"
	"github.com/trainops/workshop-portal/internal/model"
)

// DeleteWorkshopWorkflow tears down every participant environment of a
// workshop. Resource group and directory account deletion are attempted
// independently per participant, so one stuck resource does not keep the
// other alive. Failures land in the deletion failure ledger instead of
// aborting the teardown; the workshop is finalized only when the ledger is
// empty.
func DeleteWorkshopWorkflow(ctx workflow.Context, workshopID string) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// Set status to deleting.
	err := workflow.ExecuteActivity(ctx, "UpdateWorkshopStatus", activity.UpdateWorkshopStatusParams{
		WorkshopID: workshopID,
		Status:     model.StatusDeleting,
	}).Get(ctx, nil)
	if err != nil {
		return err
	}

	// Look up the workshop and its participants.
	var wc activity.WorkshopContext
	err = workflow.ExecuteActivity(ctx, "GetWorkshopContext", workshopID).Get(ctx, &wc)
	if err != nil {
		_ = setWorkshopFailed(ctx, workshopID, err)
		return err
	}

	for _, p := range wc.Participants {
		if p.Status == model.StatusDeleted {
			continue
		}
		deleteParticipantResources(ctx, workshopID, &p)
	}

	var remaining int
	err = workflow.ExecuteActivity(ctx, "CountDeletionFailures", workshopID).Get(ctx, &remaining)
	if err != nil {
		_ = setWorkshopFailed(ctx, workshopID, err)
		return err
	}

	if remaining > 0 {
		return workflow.ExecuteActivity(ctx, "UpdateWorkshopStatus", activity.UpdateWorkshopStatusParams{
			WorkshopID: workshopID,
			Status:     model.StatusFailed,
			Message:    fmt.Sprintf("%d resources failed to delete", remaining),
		}).Get(ctx, nil)
	}

	return workflow.ExecuteActivity(ctx, "FinalizeWorkshopDeletion", workshopID).Get(ctx, nil)
}

// deleteParticipantResources tears down one participant. A successful
// delete clears the participant row and settles any ledger entry left by an
// earlier attempt; a failed delete records one.
func deleteParticipantResources(ctx workflow.Context, workshopID string, p *model.Participant) {
	logger := workflow.GetLogger(ctx)

	if p.ResourceGroup != "" && p.SubscriptionID != "" {
		err := workflow.ExecuteActivity(ctx, "DeleteResourceGroup", activity.DeleteResourceGroupParams{
			SubscriptionID: p.SubscriptionID,
			Name:           p.ResourceGroup,
		}).Get(ctx, nil)
		if err != nil {
			logger.Error("resource group deletion failed",
				"resource_group", p.ResourceGroup,
				"error", err)
			_ = workflow.ExecuteActivity(ctx, "RecordDeletionFailure", activity.RecordDeletionFailureParams{
				WorkshopID:     workshopID,
				ResourceType:   model.ResourceTypeResourceGroup,
				ResourceName:   p.ResourceGroup,
				SubscriptionID: p.SubscriptionID,
				ErrorMessage:   err.Error(),
			}).Get(ctx, nil)
		} else {
			_ = workflow.ExecuteActivity(ctx, "ClearParticipantResource", activity.ClearParticipantResourceParams{
				ParticipantID: p.ID,
				ResourceType:  model.ResourceTypeResourceGroup,
			}).Get(ctx, nil)
			_ = workflow.ExecuteActivity(ctx, "ResolveByResource", activity.ResolveByResourceParams{
				WorkshopID:   workshopID,
				ResourceType: model.ResourceTypeResourceGroup,
				ResourceName: p.ResourceGroup,
			}).Get(ctx, nil)
		}
	}

	if p.UPN != "" {
		err := workflow.ExecuteActivity(ctx, "DeleteAccount", activity.DeleteAccountParams{
			UPN: p.UPN,
		}).Get(ctx, nil)
		if err != nil {
			logger.Error("account deletion failed",
				"upn", p.UPN,
				"error", err)
			_ = workflow.ExecuteActivity(ctx, "RecordDeletionFailure", activity.RecordDeletionFailureParams{
				WorkshopID:   workshopID,
				ResourceType: model.ResourceTypeEntraUser,
				ResourceName: p.UPN,
				ErrorMessage: err.Error(),
			}).Get(ctx, nil)
		} else {
			_ = workflow.ExecuteActivity(ctx, "ClearParticipantResource", activity.ClearParticipantResourceParams{
				ParticipantID: p.ID,
				ResourceType:  model.ResourceTypeEntraUser,
			}).Get(ctx, nil)
			_ = workflow.ExecuteActivity(ctx, "ResolveByResource", activity.ResolveByResourceParams{
				WorkshopID:   workshopID,
				ResourceType: model.ResourceTypeEntraUser,
				ResourceName: p.UPN,
			}).Get(ctx, nil)
		}
	}
}
