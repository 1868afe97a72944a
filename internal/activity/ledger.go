package activity

import (
	"context"
	"fmt"

	"github.com/trainops/workshop-portal/internal/metrics"
	"github.com/trainops/workshop-portal/internal/model"
	"github.com/trainops/workshop-portal/internal/platform"
)

// Ledger contains activities that maintain the deletion failure ledger.
type Ledger struct {
	db DB
}

func NewLedger(db DB) *Ledger {
	return &Ledger{db: db}
}

type RecordDeletionFailureParams struct {
	WorkshopID     string `json:"workshop_id"`
	ResourceType   string `json:"resource_type"`
	ResourceName   string `json:"resource_name"`
	SubscriptionID string `json:"subscription_id"`
	ErrorMessage   string `json:"error_message"`
}

// RecordDeletionFailure upserts a ledger entry. One entry exists per
// (workshop, resource type, resource name); a repeated failure refreshes the
// error and bumps the retry count instead of duplicating the row.
func (a *Ledger) RecordDeletionFailure(ctx context.Context, params RecordDeletionFailureParams) error {
	_, err := a.db.Exec(ctx,
		`INSERT INTO deletion_failures (id, workshop_id, resource_type, resource_name, subscription_id, error_message, failed_at, retry_count)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), 0)
		 ON CONFLICT (workshop_id, resource_type, resource_name)
		 DO UPDATE SET error_message = $6, failed_at = now(), retry_count = deletion_failures.retry_count + 1`,
		platform.NewID(), params.WorkshopID, params.ResourceType, params.ResourceName,
		params.SubscriptionID, params.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("record deletion failure for %s %s: %w", params.ResourceType, params.ResourceName, err)
	}
	metrics.DeletionFailuresRecorded.Inc()
	return nil
}

func (a *Ledger) GetDeletionFailure(ctx context.Context, id string) (*model.DeletionFailure, error) {
	var f model.DeletionFailure
	err := a.db.QueryRow(ctx,
		`SELECT id, workshop_id, resource_type, resource_name, subscription_id, error_message, failed_at, retry_count
		 FROM deletion_failures WHERE id = $1`, id,
	).Scan(&f.ID, &f.WorkshopID, &f.ResourceType, &f.ResourceName, &f.SubscriptionID,
		&f.ErrorMessage, &f.FailedAt, &f.RetryCount)
	if err != nil {
		return nil, fmt.Errorf("get deletion failure %s: %w", id, err)
	}
	return &f, nil
}

// ResolveDeletionFailure removes a ledger entry after the resource is
// confirmed gone. Resolving an already resolved entry is a no-op.
func (a *Ledger) ResolveDeletionFailure(ctx context.Context, id string) error {
	tag, err := a.db.Exec(ctx, "DELETE FROM deletion_failures WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("resolve deletion failure %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		metrics.DeletionFailuresResolved.Inc()
	}
	return nil
}

type ResolveByResourceParams struct {
	WorkshopID   string `json:"workshop_id"`
	ResourceType string `json:"resource_type"`
	ResourceName string `json:"resource_name"`
}

// ResolveByResource clears a ledger entry by identity rather than row ID.
// A full workshop re-delete that succeeds uses this to settle entries left
// by earlier attempts.
func (a *Ledger) ResolveByResource(ctx context.Context, params ResolveByResourceParams) error {
	tag, err := a.db.Exec(ctx,
		"DELETE FROM deletion_failures WHERE workshop_id = $1 AND resource_type = $2 AND resource_name = $3",
		params.WorkshopID, params.ResourceType, params.ResourceName,
	)
	if err != nil {
		return fmt.Errorf("resolve deletion failure for %s %s: %w", params.ResourceType, params.ResourceName, err)
	}
	if tag.RowsAffected() > 0 {
		metrics.DeletionFailuresResolved.Inc()
	}
	return nil
}

// CountDeletionFailures reports how many unresolved entries a workshop
// still has. Zero means teardown is complete.
func (a *Ledger) CountDeletionFailures(ctx context.Context, workshopID string) (int, error) {
	var n int
	err := a.db.QueryRow(ctx,
		"SELECT count(*) FROM deletion_failures WHERE workshop_id = $1", workshopID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count deletion failures for workshop %s: %w", workshopID, err)
	}
	return n, nil
}
