package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trainops/workshop-portal/internal/api/request"
	"github.com/trainops/workshop-portal/internal/api/response"
	"github.com/trainops/workshop-portal/internal/core"
)

type Cost struct {
	svc *core.CostService
}

func NewCost(svc *core.CostService) *Cost {
	return &Cost{svc: svc}
}

// Workshop godoc
//
//	@Summary		Report accumulated spend for a workshop
//	@Description	Sums pre-tax actual cost across every provisioned resource group from the workshop start date to now.
//	@Tags			Costs
//	@Security		ApiKeyAuth
//	@Param			id path string true "Workshop ID"
//	@Success		200 {object} model.CostReport
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/workshops/{id}/cost [get]
func (h *Cost) Workshop(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.WorkshopCost(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, report)
}
