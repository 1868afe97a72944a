package core

import (
	"context"
	"fmt"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/trainops/workshop-portal/internal/model"
	"github.com/trainops/workshop-portal/internal/platform"
)

type DeletionFailureService struct {
	db DB
	tc temporalclient.Client
}

func NewDeletionFailureService(db DB, tc temporalclient.Client) *DeletionFailureService {
	return &DeletionFailureService{db: db, tc: tc}
}

// List returns unresolved teardown failures, oldest first so retries bias
// toward the longest-outstanding problems. An empty workshopID lists every
// workshop's failures.
func (s *DeletionFailureService) List(ctx context.Context, workshopID string) ([]model.DeletionFailure, error) {
	query := `SELECT df.id, df.workshop_id, w.name, df.resource_type, df.resource_name, df.subscription_id, df.error_message, df.failed_at, df.retry_count
		 FROM deletion_failures df
		 JOIN workshops w ON w.id = df.workshop_id`
	var args []any
	if workshopID != "" {
		query += ` WHERE df.workshop_id = $1`
		args = append(args, workshopID)
	}
	query += ` ORDER BY df.failed_at ASC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deletion failures: %w", err)
	}
	defer rows.Close()

	var failures []model.DeletionFailure
	for rows.Next() {
		var f model.DeletionFailure
		if err := rows.Scan(&f.ID, &f.WorkshopID, &f.WorkshopName, &f.ResourceType, &f.ResourceName,
			&f.SubscriptionID, &f.ErrorMessage, &f.FailedAt, &f.RetryCount); err != nil {
			return nil, fmt.Errorf("scan deletion failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deletion failures: %w", err)
	}
	return failures, nil
}

// Retry starts a deletion retry for one ledger entry. The workflow runs
// outside the per-workshop serialization, so a stuck resource retry never
// queues behind other lifecycle work.
func (s *DeletionFailureService) Retry(ctx context.Context, failureID string) error {
	var exists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM deletion_failures WHERE id = $1)", failureID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("get deletion failure %s: %w", failureID, err)
	}
	if !exists {
		return fmt.Errorf("deletion failure %s not found", failureID)
	}

	wfID := fmt.Sprintf("retry-deletion-%s-%s", failureID, platform.NewName(""))
	if err := startWorkflow(ctx, s.tc, "RetryDeletionWorkflow", wfID, failureID); err != nil {
		return fmt.Errorf("start RetryDeletionWorkflow: %w", err)
	}
	return nil
}

// RetryAll starts one retry workflow per unresolved ledger entry and
// returns how many were started. An empty workshopID retries every
// workshop's failures.
func (s *DeletionFailureService) RetryAll(ctx context.Context, workshopID string) (int, error) {
	failures, err := s.List(ctx, workshopID)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, f := range failures {
		wfID := fmt.Sprintf("retry-deletion-%s-%s", f.ID, platform.NewName(""))
		if err := startWorkflow(ctx, s.tc, "RetryDeletionWorkflow", wfID, f.ID); err != nil {
			return started, fmt.Errorf("start RetryDeletionWorkflow for %s: %w", f.ID, err)
		}
		started++
	}
	return started, nil
}
