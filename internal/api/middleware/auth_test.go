package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuth_MissingKey(t *testing.T) {
	// Auth checks the header before any DB lookup, so nil pool is safe here.
	handler := Auth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/workshops", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	assert.NoError(t, err)
	assert.Equal(t, "missing API key", body["error"])
}

func TestHashConsistency(t *testing.T) {
	key := "test-api-key-12345"
	hash := sha256.Sum256([]byte(key))
	keyHash := hex.EncodeToString(hash[:])
	assert.Len(t, keyHash, 64) // SHA-256 = 64 hex chars
}

func TestHasScope(t *testing.T) {
	tests := []struct {
		name     string
		identity *APIKeyIdentity
		resource string
		action   string
		want     bool
	}{
		{"nil identity", nil, "workshops", "write", false},
		{"wildcard", &APIKeyIdentity{Scopes: []string{"*:*"}}, "workshops", "write", true},
		{"exact match", &APIKeyIdentity{Scopes: []string{"workshops:write"}}, "workshops", "write", true},
		{"wrong action", &APIKeyIdentity{Scopes: []string{"workshops:read"}}, "workshops", "write", false},
		{"wrong resource", &APIKeyIdentity{Scopes: []string{"templates:write"}}, "workshops", "write", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasScope(tt.identity, tt.resource, tt.action))
		})
	}
}

func TestRequireScope_Forbidden(t *testing.T) {
	handler := RequireScope("workshops", "write")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/v1/workshops", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
