package workflow

import (
	"go.temporal.io/sdk/workflow"

	"github.com/trainops/workshop-portal/internal/activity"
	"github.com/trainops/workshop-portal/internal/model"
)

// setWorkshopFailed is a helper to set a workshop status to failed with an
// error message. It returns any error but callers typically ignore it since
// the primary error is more important.
func setWorkshopFailed(ctx workflow.Context, workshopID string, err error) error {
	return workflow.ExecuteActivity(ctx, "UpdateWorkshopStatus", activity.UpdateWorkshopStatusParams{
		WorkshopID: workshopID,
		Status:     model.StatusFailed,
		Message:    err.Error(),
	}).Get(ctx, nil)
}

// failResult marks the participant failed and folds the step error into the
// workflow result. Returning a result instead of an error keeps sibling
// participants in the same batch going.
func failResult(ctx workflow.Context, result *ProvisionResult, err error) (*ProvisionResult, error) {
	_ = workflow.ExecuteActivity(ctx, "MarkParticipantFailed", activity.UpdateParticipantStatusParams{
		ParticipantID: result.ParticipantID,
		Message:       err.Error(),
	}).Get(ctx, nil)
	result.Message = err.Error()
	return result, nil
}
