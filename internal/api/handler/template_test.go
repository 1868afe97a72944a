package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/trainops/workshop-portal/internal/core"
)

func newTemplateHandler(db *handlerMockDB) *Template {
	return NewTemplate(core.NewTemplateService(db))
}

// --- Get ---

func TestTemplateGet_EmptyName(t *testing.T) {
	h := NewTemplate(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/templates/", nil)
	r = withChiURLParam(r, "name", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplateGet_NotFound(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(dest ...any) error { return pgx.ErrNoRows },
	})
	h := newTemplateHandler(db)

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/templates/default", nil)
	r = withChiURLParam(r, "name", "default")

	h.Get(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "not found")
}

// --- Upsert ---

func TestTemplateUpsert_InvalidKind(t *testing.T) {
	h := NewTemplate(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/templates/default", map[string]any{
		"kind":    "terraform",
		"content": "{}",
	})
	r = withChiURLParam(r, "name", "default")

	h.Upsert(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestTemplateUpsert_MissingContent(t *testing.T) {
	h := NewTemplate(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/templates/default", map[string]any{
		"kind": "arm",
	})
	r = withChiURLParam(r, "name", "default")

	h.Upsert(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplateUpsert_BadARMJSON(t *testing.T) {
	db := new(handlerMockDB)
	h := newTemplateHandler(db)

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/templates/default", map[string]any{
		"kind":    "arm",
		"content": "{not json",
	})
	r = withChiURLParam(r, "name", "default")

	h.Upsert(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "not valid ARM JSON")
	db.AssertNotCalled(t, "Exec")
}

// --- Delete ---

func TestTemplateDelete_InUse(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			*(dest[0].(*bool)) = true
			return nil
		},
	})
	h := newTemplateHandler(db)

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodDelete, "/templates/default", nil)
	r = withChiURLParam(r, "name", "default")

	h.Delete(rec, r)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "referenced by existing workshops")
}
