package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trainops/workshop-portal/internal/api/request"
	"github.com/trainops/workshop-portal/internal/api/response"
	"github.com/trainops/workshop-portal/internal/core"
)

type DeletionFailure struct {
	svc *core.DeletionFailureService
}

func NewDeletionFailure(svc *core.DeletionFailureService) *DeletionFailure {
	return &DeletionFailure{svc: svc}
}

// List godoc
//
//	@Summary		List unresolved teardown failures, oldest first
//	@Tags			Deletion Failures
//	@Security		ApiKeyAuth
//	@Param			workshop_id query string false "Limit to one workshop"
//	@Success		200 {array} model.DeletionFailure
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/deletion-failures [get]
func (h *DeletionFailure) List(w http.ResponseWriter, r *http.Request) {
	failures, err := h.svc.List(r.Context(), r.URL.Query().Get("workshop_id"))
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, failures)
}

// Retry godoc
//
//	@Summary		Retry one failed deletion
//	@Tags			Deletion Failures
//	@Security		ApiKeyAuth
//	@Param			id path string true "Deletion failure ID"
//	@Success		202
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/deletion-failures/{id}/retry [post]
func (h *DeletionFailure) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Retry(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// RetryAll godoc
//
//	@Summary		Retry every failed deletion
//	@Tags			Deletion Failures
//	@Security		ApiKeyAuth
//	@Param			workshop_id query string false "Limit to one workshop"
//	@Success		202 {object} map[string]int
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/deletion-failures/retry-all [post]
func (h *DeletionFailure) RetryAll(w http.ResponseWriter, r *http.Request) {
	started, err := h.svc.RetryAll(r.Context(), r.URL.Query().Get("workshop_id"))
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]int{"started": started})
}
