package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trainops/workshop-portal/internal/api/request"
	"github.com/trainops/workshop-portal/internal/api/response"
	"github.com/trainops/workshop-portal/internal/core"
	"github.com/trainops/workshop-portal/internal/model"
)

type Template struct {
	svc *core.TemplateService
}

func NewTemplate(svc *core.TemplateService) *Template {
	return &Template{svc: svc}
}

// List godoc
//
//	@Summary		List infrastructure templates
//	@Tags			Templates
//	@Security		ApiKeyAuth
//	@Success		200 {array} model.Template
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/templates [get]
func (h *Template) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, templates)
}

// Get godoc
//
//	@Summary		Get a template
//	@Tags			Templates
//	@Security		ApiKeyAuth
//	@Param			name path string true "Template name"
//	@Success		200 {object} model.Template
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/templates/{name} [get]
func (h *Template) Get(w http.ResponseWriter, r *http.Request) {
	name, err := request.RequireID(chi.URLParam(r, "name"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	template, err := h.svc.Get(r.Context(), name)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, template)
}

// Upsert godoc
//
//	@Summary		Create or replace a template
//	@Description	ARM templates must parse as JSON objects. Bicep templates are stored as-is.
//	@Tags			Templates
//	@Security		ApiKeyAuth
//	@Param			name path string true "Template name"
//	@Param			body body request.UpsertTemplate true "Template"
//	@Success		200 {object} model.Template
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/templates/{name} [put]
func (h *Template) Upsert(w http.ResponseWriter, r *http.Request) {
	name, err := request.RequireID(chi.URLParam(r, "name"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpsertTemplate
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	template := &model.Template{
		Name:        name,
		Description: req.Description,
		Kind:        req.Kind,
		Content:     req.Content,
		UpdatedAt:   time.Now(),
	}

	if err := h.svc.Upsert(r.Context(), template); err != nil {
		if errors.Is(err, core.ErrInvalidTemplate) {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, template)
}

// Delete godoc
//
//	@Summary		Delete a template
//	@Tags			Templates
//	@Security		ApiKeyAuth
//	@Param			name path string true "Template name"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/templates/{name} [delete]
func (h *Template) Delete(w http.ResponseWriter, r *http.Request) {
	name, err := request.RequireID(chi.URLParam(r, "name"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), name); err != nil {
		if errors.Is(err, core.ErrTemplateInUse) {
			response.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
