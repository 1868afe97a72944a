package core

import (
	"context"
	"fmt"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/trainops/workshop-portal/internal/model"
)

const taskQueue = "workshop-tasks"

// skipWorkflowKey is a context key that suppresses workflow execution.
// Used in tests and during seeding so that writes don't start workflows.
type skipWorkflowKey struct{}

// WithSkipWorkflow returns a context that causes signalProvision and
// startWorkflow to be no-ops.
func WithSkipWorkflow(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipWorkflowKey{}, true)
}

// signalProvision routes a workflow task through the per-workshop entity
// workflow. SignalWithStartWorkflow guarantees sequential execution of all
// lifecycle workflows for one workshop, so a delete can never interleave
// with an in-flight provision of the same workshop.
func signalProvision(ctx context.Context, tc temporalclient.Client, workshopID string, task model.ProvisionTask) error {
	if v, _ := ctx.Value(skipWorkflowKey{}).(bool); v {
		return nil
	}

	wfID := fmt.Sprintf("workshop-%s", workshopID)
	_, err := tc.SignalWithStartWorkflow(ctx, wfID, model.ProvisionSignalName, task,
		temporalclient.StartWorkflowOptions{
			ID:        wfID,
			TaskQueue: taskQueue,
		},
		"WorkshopProvisionWorkflow",
	)
	return err
}

// startWorkflow directly executes a Temporal workflow without per-workshop
// serialization. Deletion retries use this so that retrying one stuck
// resource never blocks behind the workshop's serialized lifecycle queue.
func startWorkflow(ctx context.Context, tc temporalclient.Client, workflowName, wfID string, arg any) error {
	if v, _ := ctx.Value(skipWorkflowKey{}).(bool); v {
		return nil
	}
	_, err := tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        wfID,
		TaskQueue: taskQueue,
	}, workflowName, arg)
	return err
}
