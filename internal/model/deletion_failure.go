package model

import "time"

// Teardown resource types recorded in the deletion failure ledger.
const (
	ResourceTypeResourceGroup = "resource_group"
	ResourceTypeEntraUser     = "entra_user"
)

// DeletionFailure records one teardown step that did not complete. At most
// one entry exists per (workshop, resource type, resource name); retries
// update RetryCount and FailedAt in place instead of duplicating.
type DeletionFailure struct {
	ID             string    `json:"id" db:"id"`
	WorkshopID     string    `json:"workshop_id" db:"workshop_id"`
	WorkshopName   string    `json:"workshop_name" db:"workshop_name"`
	ResourceType   string    `json:"resource_type" db:"resource_type"`
	ResourceName   string    `json:"resource_name" db:"resource_name"`
	SubscriptionID string    `json:"subscription_id,omitempty" db:"subscription_id"`
	ErrorMessage   string    `json:"error_message" db:"error_message"`
	FailedAt       time.Time `json:"failed_at" db:"failed_at"`
	RetryCount     int       `json:"retry_count" db:"retry_count"`
}
