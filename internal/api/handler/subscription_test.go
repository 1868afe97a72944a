package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/trainops/workshop-portal/internal/core"
)

func newSubscriptionService(db *handlerMockDB) *core.SubscriptionService {
	return core.NewSubscriptionService(db, nil, "", 0)
}

// --- UpdateSettings ---

func TestSubscriptionUpdateSettings_InvalidJSON(t *testing.T) {
	h := NewSubscription(nil)
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPut, "/subscriptions/settings", "{bad json")

	h.UpdateSettings(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestSubscriptionUpdateSettings_BadSubscriptionID(t *testing.T) {
	h := NewSubscription(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/subscriptions/settings", map[string]any{
		"allow_list": []string{"not-a-subscription-id"},
		"version":    3,
	})

	h.UpdateSettings(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestSubscriptionUpdateSettings_StaleVersion(t *testing.T) {
	db := new(handlerMockDB)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)
	h := NewSubscription(newSubscriptionService(db))

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/subscriptions/settings", map[string]any{
		"allow_list": []string{"8c9d2f5e-4b1a-4c3d-9e2f-1a2b3c4d5e6f"},
		"deny_list":  []string{},
		"version":    3,
	})

	h.UpdateSettings(rec, r)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "modified concurrently")
}

// --- MarkInvalid ---

func TestSubscriptionMarkInvalid_EmptyID(t *testing.T) {
	h := NewSubscription(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/subscriptions//invalidate", nil)
	r = withChiURLParam(r, "id", "")

	h.MarkInvalid(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionMarkInvalid_CountsFlagged(t *testing.T) {
	db := new(handlerMockDB)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("UPDATE 4"), nil)
	h := NewSubscription(newSubscriptionService(db))

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/subscriptions/"+validID+"/invalidate", nil)
	r = withChiURLParam(r, "id", validID)

	h.MarkInvalid(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"participants_flagged":4`)
}
