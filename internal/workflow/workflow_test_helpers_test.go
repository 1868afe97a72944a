package workflow

import (
	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/testsuite"

	"github.com/trainops/workshop-portal/internal/activity"
	"github.com/trainops/workshop-portal/internal/model"
)

// registerActivities registers activity structs with the test workflow
// environment so that parameter and return types can be deserialized correctly
// by the Temporal test framework. In unit tests, all activities are mocked via
// OnActivity, but the framework still needs the type information for proper
// serialization/deserialization of activity parameters and return values.
func registerActivities(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivity(&activity.Store{})
	env.RegisterActivity(&activity.Ledger{})
	env.RegisterActivity(&activity.Allocator{})
	env.RegisterActivity(&activity.Identity{})
	env.RegisterActivity(&activity.Resource{})
	env.RegisterActivity(&activity.Email{})
	env.RegisterActivity(&activity.Defaults{})
}

// matchFailedWorkshop returns a mock.MatchedBy matcher for
// UpdateWorkshopStatusParams that checks the workshop ID, status=failed, and
// a non-empty message. The exact message includes Temporal activity error
// wrapping that is not predictable in tests.
func matchFailedWorkshop(workshopID string) interface{} {
	return mock.MatchedBy(func(params activity.UpdateWorkshopStatusParams) bool {
		return params.WorkshopID == workshopID &&
			params.Status == model.StatusFailed &&
			params.Message != ""
	})
}

// matchFailedParticipant matches the MarkParticipantFailed call for a
// participant with any non-empty message.
func matchFailedParticipant(participantID string) interface{} {
	return mock.MatchedBy(func(params activity.UpdateParticipantStatusParams) bool {
		return params.ParticipantID == participantID &&
			params.Message != ""
	})
}
