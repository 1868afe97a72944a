package activity

import (
	"context"
	"fmt"

	"github.com/trainops/workshop-portal/internal/azure"
	"github.com/trainops/workshop-portal/internal/platform"
)

// GraphClient covers the directory operations used during provisioning.
// *azure.Graph satisfies this interface.
type GraphClient interface {
	CreateUser(ctx context.Context, params azure.CreateUserParams) (string, error)
	DeleteUser(ctx context.Context, userPrincipalName string) error
}

// Identity contains activities that manage participant directory accounts.
type Identity struct {
	graph         GraphClient
	domain        string
	usageLocation string
}

func NewIdentity(graph GraphClient, domain, usageLocation string) *Identity {
	return &Identity{graph: graph, domain: domain, usageLocation: usageLocation}
}

type CreateAccountParams struct {
	Alias string `json:"alias"`
}

type CreateAccountResult struct {
	UPN      string `json:"upn"`
	ObjectID string `json:"object_id"`
	Password string `json:"password"`
}

const initialPasswordLength = 14

// CreateAccount creates the participant's directory account with a
// generated initial password. The account is forced to change it on first
// sign-in. Creating an account that already exists returns the existing
// object ID, so a retried step converges; the returned password is then the
// fresh one, which is harmless because it was never applied.
func (a *Identity) CreateAccount(ctx context.Context, params CreateAccountParams) (*CreateAccountResult, error) {
	upn := platform.UserPrincipalName(params.Alias, a.domain)
	password := platform.NewPassword(initialPasswordLength)

	objectID, err := a.graph.CreateUser(ctx, azure.CreateUserParams{
		DisplayName:       fmt.Sprintf("Workshop User %s", params.Alias),
		MailNickname:      params.Alias,
		UserPrincipalName: upn,
		UsageLocation:     a.usageLocation,
		Password:          password,
	})
	if err != nil {
		return nil, err
	}

	return &CreateAccountResult{UPN: upn, ObjectID: objectID, Password: password}, nil
}

type DeleteAccountParams struct {
	UPN string `json:"upn"`
}

// DeleteAccount removes the participant's directory account. A missing
// account counts as deleted.
func (a *Identity) DeleteAccount(ctx context.Context, params DeleteAccountParams) error {
	return a.graph.DeleteUser(ctx, params.UPN)
}
