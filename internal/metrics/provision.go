package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provisioning outcome counters, incremented from the worker activities.
var (
	ParticipantsProvisioned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_participants_provisioned_total",
		Help: "Participant provisioning attempts by outcome (succeeded, failed)",
	}, []string{"outcome"})

	DeletionFailuresRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_deletion_failures_recorded_total",
		Help: "Teardown steps recorded in the deletion failure ledger",
	})

	DeletionFailuresResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_deletion_failures_resolved_total",
		Help: "Ledger entries cleared after a successful retry",
	})

	WorkshopsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_workshops_deleted_total",
		Help: "Workshops fully torn down, whether by an operator or the cleanup schedule",
	})
)
