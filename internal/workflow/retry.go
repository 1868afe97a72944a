package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/trainops/workshop-portal/internal/activity"
	"github.com/trainops/workshop-portal/internal/model"
)

// RetryDeletionWorkflow retries a single deletion failure ledger entry. It
// is started directly rather than through the per-workshop orchestrator, so
// a stuck resource cannot block the workshop's lifecycle queue.
func RetryDeletionWorkflow(ctx workflow.Context, failureID string) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var f model.DeletionFailure
	err := workflow.ExecuteActivity(ctx, "GetDeletionFailure", failureID).Get(ctx, &f)
	if err != nil {
		return err
	}

	switch f.ResourceType {
	case model.ResourceTypeResourceGroup:
		err = workflow.ExecuteActivity(ctx, "DeleteResourceGroup", activity.DeleteResourceGroupParams{
			SubscriptionID: f.SubscriptionID,
			Name:           f.ResourceName,
		}).Get(ctx, nil)
	case model.ResourceTypeEntraUser:
		err = workflow.ExecuteActivity(ctx, "DeleteAccount", activity.DeleteAccountParams{
			UPN: f.ResourceName,
		}).Get(ctx, nil)
	default:
		return fmt.Errorf("unknown resource type %q", f.ResourceType)
	}
	if err != nil {
		// Refresh the ledger entry so the error and retry count stay current.
		_ = workflow.ExecuteActivity(ctx, "RecordDeletionFailure", activity.RecordDeletionFailureParams{
			WorkshopID:     f.WorkshopID,
			ResourceType:   f.ResourceType,
			ResourceName:   f.ResourceName,
			SubscriptionID: f.SubscriptionID,
			ErrorMessage:   err.Error(),
		}).Get(ctx, nil)
		return err
	}

	err = workflow.ExecuteActivity(ctx, "ClearResourceByName", activity.ClearResourceByNameParams{
		WorkshopID:   f.WorkshopID,
		ResourceType: f.ResourceType,
		ResourceName: f.ResourceName,
	}).Get(ctx, nil)
	if err != nil {
		return err
	}

	err = workflow.ExecuteActivity(ctx, "ResolveDeletionFailure", failureID).Get(ctx, nil)
	if err != nil {
		return err
	}

	var remaining int
	err = workflow.ExecuteActivity(ctx, "CountDeletionFailures", f.WorkshopID).Get(ctx, &remaining)
	if err != nil {
		return err
	}
	// The ledger only holds entries for workshops under teardown, so an
	// empty ledger means the last blocking resource is gone.
	if remaining == 0 {
		return workflow.ExecuteActivity(ctx, "FinalizeWorkshopDeletion", f.WorkshopID).Get(ctx, nil)
	}
	return nil
}
