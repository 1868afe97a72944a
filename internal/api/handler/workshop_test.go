package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/trainops/workshop-portal/internal/core"
	"github.com/trainops/workshop-portal/internal/model"
)

func newWorkshopHandler() *Workshop {
	return NewWorkshop(nil)
}

func validCreateBody() map[string]any {
	return map[string]any{
		"name":       "Azure Fundamentals",
		"start_date": "2026-09-01T09:00:00Z",
		"end_date":   "2026-09-03T18:00:00Z",
		"created_by": "trainer@example.com",
		"participants": []map[string]any{
			{"alias": "alice"},
			{"alias": "bob"},
		},
	}
}

// --- Create ---

func TestWorkshopCreate_InvalidJSON(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/workshops", "{bad json")

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestWorkshopCreate_EmptyBody(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/workshops", "")

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkshopCreate_MissingRequiredFields(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/workshops", map[string]any{})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestWorkshopCreate_EndBeforeStart(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	body := validCreateBody()
	body["end_date"] = "2026-08-30T09:00:00Z"
	r := newRequest(http.MethodPost, "/workshops", body)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkshopCreate_SameDayAccepted(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	body := validCreateBody()
	body["start_date"] = "2026-09-01T09:00:00Z"
	body["end_date"] = "2026-09-01T09:00:00Z"
	r := newRequest(http.MethodPost, "/workshops", body)

	// A one-day workshop starts and ends on the same date.
	func() {
		defer func() { recover() }()
		h.Create(rec, r)
	}()

	assert.NotEqual(t, http.StatusBadRequest, rec.Code)
}

func TestWorkshopCreate_UnknownTemplate(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, []any{"ghost"}).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			*(dest[0].(*bool)) = false
			return nil
		},
	})
	h := NewWorkshop(core.NewWorkshopService(db, nil))

	rec := httptest.NewRecorder()
	body := validCreateBody()
	body["template_name"] = "ghost"
	r := newRequest(http.MethodPost, "/workshops", body)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeErrorResponse(rec)
	assert.Contains(t, errBody["error"], "template")
	db.AssertNotCalled(t, "Exec")
}

func TestWorkshopCreate_NoParticipants(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	body := validCreateBody()
	body["participants"] = []map[string]any{}
	r := newRequest(http.MethodPost, "/workshops", body)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkshopCreate_InvalidAlias(t *testing.T) {
	tests := []struct {
		name  string
		alias string
	}{
		{"uppercase", "Alice"},
		{"spaces", "ali ce"},
		{"special chars", "alice@contoso"},
		{"starts with digit", "1alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newWorkshopHandler()
			rec := httptest.NewRecorder()
			body := validCreateBody()
			body["participants"] = []map[string]any{{"alias": tt.alias}}
			r := newRequest(http.MethodPost, "/workshops", body)

			h.Create(rec, r)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestWorkshopCreate_DuplicateAlias(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	body := validCreateBody()
	body["participants"] = []map[string]any{
		{"alias": "alice"},
		{"alias": "al.ice"}, // normalizes differently, stays unique
		{"alias": "alice"},
	}
	r := newRequest(http.MethodPost, "/workshops", body)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	bodyMap := decodeErrorResponse(rec)
	assert.Contains(t, bodyMap["error"], "duplicate alias")
}

func TestWorkshopCreate_ValidBody(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/workshops", validCreateBody())

	func() {
		defer func() { recover() }()
		h.Create(rec, r)
	}()

	assert.NotEqual(t, http.StatusBadRequest, rec.Code)
}

// --- Get ---

func TestWorkshopGet_EmptyID(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/workshops/", nil)
	r = withChiURLParam(r, "id", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

// --- Update ---

func TestWorkshopUpdate_EmptyID(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/workshops/", map[string]any{"name": "x"})
	r = withChiURLParam(r, "id", "")

	h.Update(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkshopUpdate_InvalidJSON(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPut, "/workshops/"+validID, "{bad json")
	r = withChiURLParam(r, "id", validID)

	h.Update(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

// --- AddParticipants ---

func TestWorkshopAddParticipants_EmptyList(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/workshops/"+validID+"/participants", map[string]any{
		"participants": []map[string]any{},
	})
	r = withChiURLParam(r, "id", validID)

	h.AddParticipants(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkshopAddParticipants_ValidBody(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/workshops/"+validID+"/participants", map[string]any{
		"participants": []map[string]any{{"alias": "carol"}},
	})
	r = withChiURLParam(r, "id", validID)

	func() {
		defer func() { recover() }()
		h.AddParticipants(rec, r)
	}()

	assert.NotEqual(t, http.StatusBadRequest, rec.Code)
}

// --- ReassignParticipant ---

func TestWorkshopReassign_MissingAlias(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/workshops/"+validID+"/participants//subscription", nil)
	r = withChiURLParams(r, map[string]string{"id": validID, "alias": ""})

	h.ReassignParticipant(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkshopReassign_BadSubscriptionID(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/workshops/"+validID+"/participants/alice/subscription", map[string]any{
		"subscription_id": "not-a-subscription-id",
	})
	r = withChiURLParams(r, map[string]string{"id": validID, "alias": "alice"})

	h.ReassignParticipant(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestWorkshopReassign_DeniedSubscription(t *testing.T) {
	target := "8c9d2f5e-4b1a-4c3d-9e2f-1a2b3c4d5e6f"

	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, []any{validID, "alice"}).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			*(dest[0].(*string)) = "sub-old"
			return nil
		},
	})
	db.On("QueryRow", mock.Anything, mock.Anything, []any(nil)).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			*(dest[0].(*[]string)) = nil
			*(dest[1].(*[]string)) = []string{target}
			return nil
		},
	})
	h := NewWorkshop(core.NewWorkshopService(db, nil))

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/workshops/"+validID+"/participants/alice/subscription", map[string]any{
		"subscription_id": target,
	})
	r = withChiURLParams(r, map[string]string{"id": validID, "alias": "alice"})

	h.ReassignParticipant(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "deny-listed")
	db.AssertNotCalled(t, "Exec")
}

// --- Delete ---

func TestWorkshopDelete_NotFound(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, []any{validID}).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			return pgx.ErrNoRows
		},
	})
	h := NewWorkshop(core.NewWorkshopService(db, nil))

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodDelete, "/workshops/"+validID, nil)
	r = withChiURLParam(r, "id", validID)

	h.Delete(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	db.AssertNotCalled(t, "Exec")
}

func TestWorkshopDelete_AlreadyDeleting(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, []any{validID}).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			*(dest[0].(*string)) = validID
			*(dest[3].(*string)) = model.StatusDeleting
			return nil
		},
	})
	h := NewWorkshop(core.NewWorkshopService(db, nil))

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodDelete, "/workshops/"+validID, nil)
	r = withChiURLParam(r, "id", validID)

	h.Delete(rec, r)

	assert.Equal(t, http.StatusConflict, rec.Code)
	db.AssertNotCalled(t, "Exec")
}

// --- Credentials ---

func TestWorkshopCredentials_EmptyID(t *testing.T) {
	h := newWorkshopHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/workshops//credentials", nil)
	r = withChiURLParam(r, "id", "")

	h.Credentials(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
