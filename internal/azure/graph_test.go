package azure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCredential struct{}

func (staticCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "test-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func testGraph(srvURL string) *Graph {
	g := NewGraph(staticCredential{})
	g.baseURL = srvURL
	return g
}

// ---------- CreateUser ----------

func TestGraph_CreateUser_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var payload map[string]any
		err := json.NewDecoder(r.Body).Decode(&payload)
		require.NoError(t, err)
		assert.Equal(t, true, payload["accountEnabled"])
		assert.Equal(t, "Workshop User alice", payload["displayName"])
		assert.Equal(t, "alice@contoso.onmicrosoft.com", payload["userPrincipalName"])
		assert.Equal(t, "KR", payload["usageLocation"])

		profile, ok := payload["passwordProfile"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, profile["forceChangePasswordNextSignIn"])
		assert.Equal(t, "Xy7!abcdef", profile["password"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"obj-123"}`))
	}))
	defer srv.Close()

	objectID, err := testGraph(srv.URL).CreateUser(context.Background(), CreateUserParams{
		DisplayName:       "Workshop User alice",
		MailNickname:      "alice",
		UserPrincipalName: "alice@contoso.onmicrosoft.com",
		UsageLocation:     "KR",
		Password:          "Xy7!abcdef",
	})
	require.NoError(t, err)
	assert.Equal(t, "obj-123", objectID)
}

func TestGraph_CreateUser_AlreadyExists_ReturnsExistingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"Another object with the same value for property userPrincipalName already exists."}}`))
		case http.MethodGet:
			assert.Equal(t, "/users/alice@contoso.onmicrosoft.com", r.URL.Path)
			w.Write([]byte(`{"id":"obj-existing"}`))
		}
	}))
	defer srv.Close()

	objectID, err := testGraph(srv.URL).CreateUser(context.Background(), CreateUserParams{
		UserPrincipalName: "alice@contoso.onmicrosoft.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "obj-existing", objectID)
}

func TestGraph_CreateUser_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"insufficient privileges"}}`))
	}))
	defer srv.Close()

	_, err := testGraph(srv.URL).CreateUser(context.Background(), CreateUserParams{
		UserPrincipalName: "alice@contoso.onmicrosoft.com",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "insufficient privileges")
}

// ---------- DeleteUser ----------

func TestGraph_DeleteUser_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/users/alice@contoso.onmicrosoft.com", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := testGraph(srv.URL).DeleteUser(context.Background(), "alice@contoso.onmicrosoft.com")
	require.NoError(t, err)
}

func TestGraph_DeleteUser_NotFound_CountsAsDeleted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := testGraph(srv.URL).DeleteUser(context.Background(), "gone@contoso.onmicrosoft.com")
	require.NoError(t, err)
}

func TestGraph_DeleteUser_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("directory unavailable"))
	}))
	defer srv.Close()

	err := testGraph(srv.URL).DeleteUser(context.Background(), "alice@contoso.onmicrosoft.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
