package model

// Workshop and participant status constants. Workshops move
// draft -> provisioning -> active -> deleting -> deleted, with failed as a
// possible outcome of provisioning or teardown.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusDeleting  = "deleting"
	StatusDeleted   = "deleted"
)

// Participant status constants. Pending and provisioning also appear as
// workshop statuses while a provisioning run is in flight.
const (
	StatusPending      = "pending"
	StatusProvisioning = "provisioning"
)

// workshopTransitions lists the allowed status transitions.
var workshopTransitions = map[string][]string{
	StatusDraft:        {StatusProvisioning, StatusDeleting},
	StatusProvisioning: {StatusActive, StatusDraft, StatusFailed, StatusDeleting},
	// active -> provisioning covers adding participants to a running
	// workshop; active -> draft covers a run where nobody succeeded.
	StatusActive:    {StatusProvisioning, StatusDraft, StatusCompleted, StatusFailed, StatusDeleting},
	StatusCompleted: {StatusDeleting},
	StatusFailed:    {StatusProvisioning, StatusDeleting},
	StatusDeleting:  {StatusDeleted, StatusFailed},
	StatusDeleted:   {},
}

// CanTransition reports whether a workshop may move from one status to another.
// A no-op transition (same status) is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range workshopTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
