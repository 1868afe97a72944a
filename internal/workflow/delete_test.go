package workflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/trainops/workshop-portal/internal/activity"
	"github.com/trainops/workshop-portal/internal/model"
)

// ---------- DeleteWorkshopWorkflow ----------

type DeleteWorkshopWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *DeleteWorkshopWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *DeleteWorkshopWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func provisionedParticipant(id, alias string) model.Participant {
	return model.Participant{
		ID:             id,
		WorkshopID:     testWorkshopID,
		Alias:          alias,
		UPN:            alias + "@contoso.onmicrosoft.com",
		SubscriptionID: "sub-a",
		ResourceGroup:  "ws-1a2b3c4d-" + alias,
		Status:         model.StatusActive,
	}
}

func (s *DeleteWorkshopWorkflowTestSuite) mockDeleteStart(wc *activity.WorkshopContext) {
	s.env.OnActivity("UpdateWorkshopStatus", mock.Anything, activity.UpdateWorkshopStatusParams{
		WorkshopID: testWorkshopID, Status: model.StatusDeleting,
	}).Return(nil)
	s.env.OnActivity("GetWorkshopContext", mock.Anything, testWorkshopID).Return(wc, nil)
}

func (s *DeleteWorkshopWorkflowTestSuite) TestSuccess() {
	wc := testWorkshopContext(provisionedParticipant("p-1", "alice"))
	s.mockDeleteStart(wc)

	s.env.OnActivity("DeleteResourceGroup", mock.Anything, activity.DeleteResourceGroupParams{
		SubscriptionID: "sub-a", Name: "ws-1a2b3c4d-alice",
	}).Return(nil)
	s.env.OnActivity("ClearParticipantResource", mock.Anything, activity.ClearParticipantResourceParams{
		ParticipantID: "p-1", ResourceType: model.ResourceTypeResourceGroup,
	}).Return(nil)
	s.env.OnActivity("ResolveByResource", mock.Anything, activity.ResolveByResourceParams{
		WorkshopID: testWorkshopID, ResourceType: model.ResourceTypeResourceGroup, ResourceName: "ws-1a2b3c4d-alice",
	}).Return(nil)

	s.env.OnActivity("DeleteAccount", mock.Anything, activity.DeleteAccountParams{
		UPN: "alice@contoso.onmicrosoft.com",
	}).Return(nil)
	s.env.OnActivity("ClearParticipantResource", mock.Anything, activity.ClearParticipantResourceParams{
		ParticipantID: "p-1", ResourceType: model.ResourceTypeEntraUser,
	}).Return(nil)
	s.env.OnActivity("ResolveByResource", mock.Anything, activity.ResolveByResourceParams{
		WorkshopID: testWorkshopID, ResourceType: model.ResourceTypeEntraUser, ResourceName: "alice@contoso.onmicrosoft.com",
	}).Return(nil)

	s.env.OnActivity("CountDeletionFailures", mock.Anything, testWorkshopID).Return(0, nil)
	s.env.OnActivity("FinalizeWorkshopDeletion", mock.Anything, testWorkshopID).Return(nil)

	s.env.ExecuteWorkflow(DeleteWorkshopWorkflow, testWorkshopID)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *DeleteWorkshopWorkflowTestSuite) TestStuckResourceGroup_GoesToLedger() {
	wc := testWorkshopContext(provisionedParticipant("p-1", "alice"))
	s.mockDeleteStart(wc)

	s.env.OnActivity("DeleteResourceGroup", mock.Anything, mock.Anything).
		Return(fmt.Errorf("resource group locked"))
	s.env.OnActivity("RecordDeletionFailure", mock.Anything, mock.MatchedBy(func(params activity.RecordDeletionFailureParams) bool {
		return params.WorkshopID == testWorkshopID &&
			params.ResourceType == model.ResourceTypeResourceGroup &&
			params.ResourceName == "ws-1a2b3c4d-alice" &&
			params.SubscriptionID == "sub-a" &&
			params.ErrorMessage != ""
	})).Return(nil)

	// The account delete still runs; one stuck resource does not block it.
	s.env.OnActivity("DeleteAccount", mock.Anything, activity.DeleteAccountParams{
		UPN: "alice@contoso.onmicrosoft.com",
	}).Return(nil)
	s.env.OnActivity("ClearParticipantResource", mock.Anything, activity.ClearParticipantResourceParams{
		ParticipantID: "p-1", ResourceType: model.ResourceTypeEntraUser,
	}).Return(nil)
	s.env.OnActivity("ResolveByResource", mock.Anything, mock.Anything).Return(nil)

	s.env.OnActivity("CountDeletionFailures", mock.Anything, testWorkshopID).Return(1, nil)
	s.env.OnActivity("UpdateWorkshopStatus", mock.Anything, activity.UpdateWorkshopStatusParams{
		WorkshopID: testWorkshopID,
		Status:     model.StatusFailed,
		Message:    "1 resources failed to delete",
	}).Return(nil)

	s.env.ExecuteWorkflow(DeleteWorkshopWorkflow, testWorkshopID)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *DeleteWorkshopWorkflowTestSuite) TestSkipsDeletedParticipants() {
	deleted := provisionedParticipant("p-1", "alice")
	deleted.Status = model.StatusDeleted
	wc := testWorkshopContext(deleted)
	s.mockDeleteStart(wc)

	// No delete activities for the already deleted participant.
	s.env.OnActivity("CountDeletionFailures", mock.Anything, testWorkshopID).Return(0, nil)
	s.env.OnActivity("FinalizeWorkshopDeletion", mock.Anything, testWorkshopID).Return(nil)

	s.env.ExecuteWorkflow(DeleteWorkshopWorkflow, testWorkshopID)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *DeleteWorkshopWorkflowTestSuite) TestPartiallyProvisioned_OnlyExistingResources() {
	// A participant that failed before the resource group step has only an
	// account to remove.
	p := model.Participant{
		ID:         "p-1",
		WorkshopID: testWorkshopID,
		Alias:      "alice",
		UPN:        "alice@contoso.onmicrosoft.com",
		Status:     model.StatusFailed,
	}
	wc := testWorkshopContext(p)
	s.mockDeleteStart(wc)

	s.env.OnActivity("DeleteAccount", mock.Anything, activity.DeleteAccountParams{
		UPN: "alice@contoso.onmicrosoft.com",
	}).Return(nil)
	s.env.OnActivity("ClearParticipantResource", mock.Anything, activity.ClearParticipantResourceParams{
		ParticipantID: "p-1", ResourceType: model.ResourceTypeEntraUser,
	}).Return(nil)
	s.env.OnActivity("ResolveByResource", mock.Anything, mock.Anything).Return(nil)

	s.env.OnActivity("CountDeletionFailures", mock.Anything, testWorkshopID).Return(0, nil)
	s.env.OnActivity("FinalizeWorkshopDeletion", mock.Anything, testWorkshopID).Return(nil)

	s.env.ExecuteWorkflow(DeleteWorkshopWorkflow, testWorkshopID)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *DeleteWorkshopWorkflowTestSuite) TestGetContextFails_SetsStatusFailed() {
	s.env.OnActivity("UpdateWorkshopStatus", mock.Anything, activity.UpdateWorkshopStatusParams{
		WorkshopID: testWorkshopID, Status: model.StatusDeleting,
	}).Return(nil)
	s.env.OnActivity("GetWorkshopContext", mock.Anything, testWorkshopID).
		Return(nil, fmt.Errorf("db error"))
	s.env.OnActivity("UpdateWorkshopStatus", mock.Anything, matchFailedWorkshop(testWorkshopID)).Return(nil)

	s.env.ExecuteWorkflow(DeleteWorkshopWorkflow, testWorkshopID)
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

// ---------- Run ----------

func TestDeleteWorkshopWorkflow(t *testing.T) {
	suite.Run(t, new(DeleteWorkshopWorkflowTestSuite))
}
