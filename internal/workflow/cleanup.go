package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// CleanupExpiredWorkshopsWorkflow runs on a schedule and tears down
// workshops whose end date has passed. Each teardown reuses the workflow ID
// the portal uses for manual deletion, so the schedule and an operator
// clicking delete cannot both tear down the same workshop.
func CleanupExpiredWorkshopsWorkflow(ctx workflow.Context) error {
	logger := workflow.GetLogger(ctx)
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var ids []string
	err := workflow.ExecuteActivity(ctx, "ListExpiredWorkshops").Get(ctx, &ids)
	if err != nil {
		return err
	}

	for _, id := range ids {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: fmt.Sprintf("delete-workshop-%s", id),
		})
		if err := workflow.ExecuteChildWorkflow(childCtx, DeleteWorkshopWorkflow, id).Get(ctx, nil); err != nil {
			logger.Error("expired workshop teardown failed",
				"workshop_id", id,
				"error", err)
		}
	}

	if len(ids) > 0 {
		logger.Info("cleanup pass finished", "workshops", len(ids))
	}
	return nil
}
