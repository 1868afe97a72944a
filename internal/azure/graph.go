package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// Graph is a minimal Microsoft Graph client covering directory account
// lifecycle for workshop participants.
type Graph struct {
	cred       azcore.TokenCredential
	httpClient *http.Client
	baseURL    string
}

func NewGraph(cred azcore.TokenCredential) *Graph {
	return &Graph{
		cred:       cred,
		httpClient: &http.Client{},
		baseURL:    graphBaseURL,
	}
}

type CreateUserParams struct {
	DisplayName       string
	MailNickname      string
	UserPrincipalName string
	UsageLocation     string
	Password          string
}

// CreateUser creates a directory account with a force-change initial
// password and returns its object ID. If the principal name is already
// taken, the existing account's object ID is returned instead, so a
// retried provisioning step converges.
func (g *Graph) CreateUser(ctx context.Context, params CreateUserParams) (string, error) {
	payload := map[string]any{
		"accountEnabled":    true,
		"displayName":       params.DisplayName,
		"mailNickname":      params.MailNickname,
		"userPrincipalName": params.UserPrincipalName,
		"usageLocation":     params.UsageLocation,
		"passwordProfile": map[string]any{
			"forceChangePasswordNextSignIn": true,
			"password":                      params.Password,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal create user: %w", err)
	}

	status, respBody, err := g.do(ctx, http.MethodPost, "/users", body)
	if err != nil {
		return "", fmt.Errorf("create user %s: %w", params.UserPrincipalName, err)
	}

	switch {
	case status == http.StatusCreated:
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(respBody, &created); err != nil {
			return "", fmt.Errorf("decode create user response: %w", err)
		}
		return created.ID, nil
	case status == http.StatusBadRequest && strings.Contains(string(respBody), "already exists"):
		return g.userObjectID(ctx, params.UserPrincipalName)
	default:
		return "", fmt.Errorf("create user %s: status %d: %s", params.UserPrincipalName, status, string(respBody))
	}
}

// DeleteUser removes a directory account by principal name. A missing
// account counts as deleted.
func (g *Graph) DeleteUser(ctx context.Context, userPrincipalName string) error {
	status, respBody, err := g.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userPrincipalName), nil)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", userPrincipalName, err)
	}
	if status == http.StatusNoContent || status == http.StatusNotFound {
		return nil
	}
	return fmt.Errorf("delete user %s: status %d: %s", userPrincipalName, status, string(respBody))
}

func (g *Graph) userObjectID(ctx context.Context, userPrincipalName string) (string, error) {
	status, respBody, err := g.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userPrincipalName), nil)
	if err != nil {
		return "", fmt.Errorf("get user %s: %w", userPrincipalName, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("get user %s: status %d: %s", userPrincipalName, status, string(respBody))
	}
	var user struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &user); err != nil {
		return "", fmt.Errorf("decode get user response: %w", err)
	}
	return user.ID, nil
}

func (g *Graph) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	token, err := g.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{"https://graph.microsoft.com/.default"},
	})
	if err != nil {
		return 0, nil, fmt.Errorf("acquire graph token: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}
