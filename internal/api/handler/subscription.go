package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trainops/workshop-portal/internal/api/request"
	"github.com/trainops/workshop-portal/internal/api/response"
	"github.com/trainops/workshop-portal/internal/core"
)

type Subscription struct {
	svc *core.SubscriptionService
}

func NewSubscription(svc *core.SubscriptionService) *Subscription {
	return &Subscription{svc: svc}
}

// Catalog godoc
//
//	@Summary		List the subscription pool
//	@Description	Returns discovered subscriptions, the eligibility settings, and per-subscription usage. Pass refresh=true to bypass the discovery cache.
//	@Tags			Subscriptions
//	@Security		ApiKeyAuth
//	@Param			refresh query bool false "Bypass the discovery cache"
//	@Success		200 {object} model.SubscriptionCatalog
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/subscriptions [get]
func (h *Subscription) Catalog(w http.ResponseWriter, r *http.Request) {
	forceRefresh := r.URL.Query().Get("refresh") == "true"

	catalog, err := h.svc.Catalog(r.Context(), forceRefresh)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, catalog)
}

// Settings godoc
//
//	@Summary		Get the allocation eligibility settings
//	@Tags			Subscriptions
//	@Security		ApiKeyAuth
//	@Success		200 {object} model.SubscriptionSettings
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/subscriptions/settings [get]
func (h *Subscription) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Settings(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, settings)
}

// UpdateSettings godoc
//
//	@Summary		Replace the allocation allow and deny lists
//	@Description	The request must carry the version it last read. A stale version returns 409; re-read and retry.
//	@Tags			Subscriptions
//	@Security		ApiKeyAuth
//	@Param			body body request.UpdateSubscriptionSettings true "Settings"
//	@Success		200 {object} model.SubscriptionSettings
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/subscriptions/settings [put]
func (h *Subscription) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateSubscriptionSettings
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings, err := h.svc.UpdateSettings(r.Context(), req.AllowList, req.DenyList, req.Version)
	if errors.Is(err, core.ErrSettingsConflict) {
		response.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, settings)
}

// MarkInvalid godoc
//
//	@Summary		Flag every participant on a subscription
//	@Description	Used after a subscription is disabled or reaches its spending cap. Flagged participants show up for reassignment.
//	@Tags			Subscriptions
//	@Security		ApiKeyAuth
//	@Param			id path string true "Subscription ID"
//	@Success		200 {object} map[string]int
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/subscriptions/{id}/invalidate [post]
func (h *Subscription) MarkInvalid(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	flagged, err := h.svc.MarkInvalid(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]int{"participants_flagged": flagged})
}
