package workflow

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/trainops/workshop-portal/internal/activity"
	"github.com/trainops/workshop-portal/internal/model"
	"github.com/trainops/workshop-portal/internal/platform"
)

// provisionBatchSize bounds how many participants are provisioned in
// parallel. Graph and ARM both throttle aggressively on bursts.
const provisionBatchSize = 8

// credentialsHeader is the first line of the one-time credentials artifact.
const credentialsHeader = "alias,upn,password,subscription_id,resource_group"

// CreateWorkshopWorkflow provisions every pending participant of a workshop.
// It is the single entry point for initial provisioning, for adding
// participants to a running workshop, and for reassignment: only pending
// participants are touched, so re-running it is safe.
func CreateWorkshopWorkflow(ctx workflow.Context, workshopID string) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// Set status to provisioning.
	err := workflow.ExecuteActivity(ctx, "UpdateWorkshopStatus", activity.UpdateWorkshopStatusParams{
		WorkshopID: workshopID,
		Status:     model.StatusProvisioning,
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

	var tpl model.Template
	if wc.Workshop.TemplateName != "" {
		err = workflow.ExecuteActivity(ctx, "GetTemplate", wc.Workshop.TemplateName).Get(ctx, &tpl)
		if err != nil {
			_ = setWorkshopFailed(ctx, workshopID, err)
			return err
		}
	}

	var defaults activity.ProvisionDefaults
	err = workflow.ExecuteActivity(ctx, "GetProvisionDefaults").Get(ctx, &defaults)
	if err != nil {
		_ = setWorkshopFailed(ctx, workshopID, err)
		return err
	}

	location := defaults.DefaultLocation
	if len(wc.Workshop.AllowedRegions) > 0 {
		location = wc.Workshop.AllowedRegions[0]
	}

	var pending []model.Participant
	for _, p := range wc.Participants {
		if p.Status == model.StatusPending {
			pending = append(pending, p)
		}
	}

	results := provisionInBatches(ctx, &wc.Workshop, pending, tpl.Content, location, defaults.ResourceGroupPrefix)

	succeeded := 0
	var rows []string
	for _, r := range results {
		if r.Succeeded {
			succeeded++
			rows = append(rows, fmt.Sprintf("%s,%s,%s,%s,%s",
				r.Alias, r.UPN, r.Password, r.SubscriptionID, r.ResourceGroup))
		}
	}
	failed := len(results) - succeeded

	if len(rows) > 0 {
		err = workflow.ExecuteActivity(ctx, "SaveWorkshopCredentials", activity.SaveWorkshopCredentialsParams{
			WorkshopID: workshopID,
			CSV:        credentialsHeader + "\n" + strings.Join(rows, "\n") + "\n",
		}).Get(ctx, nil)
		if err != nil {
			_ = setWorkshopFailed(ctx, workshopID, err)
			return err
		}
	}

	// Mail is best-effort; a down SMTP relay must not fail the run.
	mailErr := workflow.ExecuteActivity(ctx, "SendProvisionedMail", activity.SendProvisionedMailParams{
		Recipient:    wc.Workshop.CreatedBy,
		WorkshopName: wc.Workshop.Name,
		Succeeded:    succeeded,
		Failed:       failed,
	}).Get(ctx, nil)
	if mailErr != nil {
		workflow.GetLogger(ctx).Error("provisioned mail failed", "workshop_id", workshopID, "error", mailErr)
	}

	active := succeeded
	for _, p := range wc.Participants {
		if p.Status == model.StatusActive {
			active++
		}
	}

	status := model.StatusActive
	message := ""
	switch {
	case active == 0 && failed > 0:
		status = model.StatusDraft
		message = fmt.Sprintf("all %d participants failed provisioning", failed)
	case active == 0:
		status = model.StatusDraft
	case failed > 0:
		message = fmt.Sprintf("%d of %d participants failed provisioning", failed, len(results))
	}

	return workflow.ExecuteActivity(ctx, "UpdateWorkshopStatus", activity.UpdateWorkshopStatusParams{
		WorkshopID: workshopID,
		Status:     status,
		Message:    message,
	}).Get(ctx, nil)
}

// provisionInBatches fans participants out as child workflows, at most
// provisionBatchSize in flight. A child that fails at the workflow level is
// recorded as an unsuccessful result; its participant row was already marked
// failed by the child.
func provisionInBatches(ctx workflow.Context, w *model.Workshop, pending []model.Participant, template, location, rgPrefix string) []ProvisionResult {
	logger := workflow.GetLogger(ctx)
	var results []ProvisionResult

	for start := 0; start < len(pending); start += provisionBatchSize {
		end := start + provisionBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		var futures []workflow.ChildWorkflowFuture
		for _, p := range batch {
			childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
				WorkflowID: fmt.Sprintf("provision-participant-%s", p.ID),
			})
			futures = append(futures, workflow.ExecuteChildWorkflow(childCtx, ProvisionParticipantWorkflow, ProvisionParticipantParams{
				WorkshopID:      w.ID,
				ParticipantID:   p.ID,
				Alias:           p.Alias,
				ResourceGroup:   platform.ResourceGroupName(rgPrefix, w.ID, p.Alias),
				Location:        location,
				Template:        template,
				AllowedRegions:  w.AllowedRegions,
				AllowedServices: w.AllowedServices,
			}))
		}

		for i, f := range futures {
			var result ProvisionResult
			if err := f.Get(ctx, &result); err != nil {
				logger.Error("participant provisioning crashed",
					"participant_id", batch[i].ID,
					"error", err)
				result = ProvisionResult{ParticipantID: batch[i].ID, Alias: batch[i].Alias, Message: err.Error()}
			}
			results = append(results, result)
		}
	}
	return results
}
