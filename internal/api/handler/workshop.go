package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/trainops/workshop-portal/internal/api/request"
	"github.com/trainops/workshop-portal/internal/api/response"
	"github.com/trainops/workshop-portal/internal/core"
	"github.com/trainops/workshop-portal/internal/model"
	"github.com/trainops/workshop-portal/internal/platform"
)

type Workshop struct {
	svc *core.WorkshopService
}

func NewWorkshop(svc *core.WorkshopService) *Workshop {
	return &Workshop{svc: svc}
}

// List godoc
//
//	@Summary		List workshops
//	@Tags			Workshops
//	@Security		ApiKeyAuth
//	@Param			search query string false "Search query"
//	@Param			status query string false "Filter by status"
//	@Param			sort query string false "Sort field" default(created_at)
//	@Param			order query string false "Sort order (asc/desc)" default(desc)
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Workshop}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/workshops [get]
func (h *Workshop) List(w http.ResponseWriter, r *http.Request) {
	params := request.ParseListParams(r, "created_at")

	workshops, hasMore, err := h.svc.List(r.Context(), params)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(workshops) > 0 {
		nextCursor = workshops[len(workshops)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, workshops, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a workshop and start provisioning
//	@Tags			Workshops
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateWorkshop true "Workshop details"
//	@Success		202 {object} model.Workshop
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/workshops [post]
func (h *Workshop) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateWorkshop
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := uniqueAliases(req.Participants); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	workshop := &model.Workshop{
		ID:              platform.NewName(""),
		Name:            req.Name,
		Description:     req.Description,
		Status:          model.StatusProvisioning,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		AllowedRegions:  req.AllowedRegions,
		AllowedServices: req.AllowedServices,
		TemplateName:    req.TemplateName,
		SurveyURL:       req.SurveyURL,
		CreatedBy:       req.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	participants := make([]model.Participant, 0, len(req.Participants))
	for _, p := range req.Participants {
		participants = append(participants, model.Participant{
			ID:         platform.NewID(),
			WorkshopID: workshop.ID,
			Alias:      p.Alias,
			Email:      p.Email,
			Status:     model.StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := h.svc.Create(r.Context(), workshop, participants); err != nil {
		if errors.Is(err, core.ErrTemplateNotFound) {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusAccepted, workshop)
}

// Get godoc
//
//	@Summary		Get a workshop
//	@Tags			Workshops
//	@Security		ApiKeyAuth
//	@Param			id path string true "Workshop ID"
//	@Success		200 {object} model.Workshop
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/workshops/{id} [get]
func (h *Workshop) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	workshop, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, workshop)
}

// Update godoc
//
//	@Summary		Update a workshop
//	@Description	Draft workshops accept every field. Once provisioning has started only the end date and survey URL may change.
//	@Tags			Workshops
//	@Security		ApiKeyAuth
//	@Param			id path string true "Workshop ID"
//	@Param			body body request.UpdateWorkshop true "Workshop updates"
//	@Success		200 {object} model.Workshop
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/workshops/{id} [put]
func (h *Workshop) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateWorkshop
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	workshop, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if req.Name != nil {
		workshop.Name = *req.Name
	}
	if req.Description != nil {
		workshop.Description = *req.Description
	}
	if req.StartDate != nil {
		workshop.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		workshop.EndDate = *req.EndDate
	}
	if req.AllowedRegions != nil {
		workshop.AllowedRegions = req.AllowedRegions
	}
	if req.AllowedServices != nil {
		workshop.AllowedServices = req.AllowedServices
	}
	if req.TemplateName != nil {
		workshop.TemplateName = *req.TemplateName
	}
	if req.SurveyURL != nil {
		workshop.SurveyURL = req.SurveyURL
	}
	if workshop.EndDate.Before(workshop.StartDate) {
		response.WriteError(w, http.StatusBadRequest, "end date must not precede start date")
		return
	}

	if err := h.svc.Update(r.Context(), workshop); err != nil {
		if errors.Is(err, core.ErrTemplateNotFound) {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, workshop)
}

// Delete godoc
//
//	@Summary		Tear down a workshop
//	@Tags			Workshops
//	@Security		ApiKeyAuth
//	@Param			id path string true "Workshop ID"
//	@Success		202
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/workshops/{id} [delete]
func (h *Workshop) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.WriteError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, core.ErrWorkshopNotDeletable):
			response.WriteError(w, http.StatusConflict, err.Error())
		default:
			response.WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// Participants godoc
//
//	@Summary		List a workshop's participants
//	@Tags			Workshops
//	@Security		ApiKeyAuth
//	@Param			id path string true "Workshop ID"
//	@Success		200 {array} model.Participant
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/workshops/{id}/participants [get]
func (h *Workshop) Participants(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	participants, err := h.svc.Participants(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, participants)
}

// AddParticipants godoc
//
//	@Summary		Add participants to an existing workshop
//	@Tags			Workshops
//	@Security		ApiKeyAuth
//	@Param			id path string true "Workshop ID"
//	@Param			body body request.AddParticipants true "Participants"
//	@Success		202
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/workshops/{id}/participants [post]
func (h *Workshop) AddParticipants(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.AddParticipants
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := uniqueAliases(req.Participants); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	participants := make([]model.Participant, 0, len(req.Participants))
	for _, p := range req.Participants {
		participants = append(participants, model.Participant{
			ID:         platform.NewID(),
			WorkshopID: id,
			Alias:      p.Alias,
			Email:      p.Email,
			Status:     model.StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := h.svc.AddParticipants(r.Context(), id, participants); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ReassignParticipant godoc
//
//	@Summary		Move a participant to a different subscription
//	@Description	Metadata-only update. The target must be discovered and eligible under the allow/deny lists; already-provisioned resources are not migrated.
//	@Tags			Workshops
//	@Security		ApiKeyAuth
//	@Param			id path string true "Workshop ID"
//	@Param			alias path string true "Participant alias"
//	@Param			body body request.ReassignSubscription true "Target subscription"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/workshops/{id}/participants/{alias}/subscription [put]
func (h *Workshop) ReassignParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	alias, err := request.RequireID(chi.URLParam(r, "alias"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.ReassignSubscription
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.ReassignParticipant(r.Context(), id, alias, req.SubscriptionID); err != nil {
		if errors.Is(err, core.ErrReassignRejected) {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Credentials godoc
//
//	@Summary		Download the one-time participant credentials CSV
//	@Description	The artifact is deleted on first download. A second request returns 404.
//	@Tags			Workshops
//	@Security		ApiKeyAuth
//	@Param			id path string true "Workshop ID"
//	@Success		200 {string} string "CSV body"
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/workshops/{id}/credentials [get]
func (h *Workshop) Credentials(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	csv, ok, err := h.svc.TakeCredentials(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		response.WriteError(w, http.StatusNotFound, "credentials already collected or not yet produced")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="workshop-%s-credentials.csv"`, id))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(csv))
}

func uniqueAliases(participants []request.CreateParticipant) error {
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		alias := platform.NormalizeAlias(p.Alias)
		if alias == "" {
			return fmt.Errorf("alias %q normalizes to an empty string", p.Alias)
		}
		if seen[alias] {
			return fmt.Errorf("duplicate alias %q", alias)
		}
		seen[alias] = true
	}
	return nil
}
