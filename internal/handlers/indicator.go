package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diewo77/impacttracker/internal/httpx"
	"github.com/diewo77/impacttracker/internal/services"
)

// IndicatorHandler exposes the indicator/entry boundary. Indicator values
// are only ever changed through the entry-append path.
type IndicatorHandler struct {
	Indicators *services.IndicatorService
}

func NewIndicatorHandler(indicators *services.IndicatorService) *IndicatorHandler {
	return &IndicatorHandler{Indicators: indicators}
}

// ListByProject: GET /api/indicators/project/{projectID}
func (h *IndicatorHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	indicators, err := h.Indicators.ListByProject(r.Context(), actor, projectID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, indicators)
}

// Create: POST /api/indicators
func (h *IndicatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		ProjectID uint `json:"projectId"`
		services.IndicatorInput
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ProjectID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"projectId": "required"})
		return
	}
	indicator, err := h.Indicators.Create(r.Context(), actor, req.ProjectID, req.IndicatorInput)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, indicator)
}

// AppendEntry: PUT /api/indicators/{indicatorID}
//
// The legacy API phrased this as an indicator update; the operation appends
// an immutable entry and refreshes the cached current value atomically.
func (h *IndicatorHandler) AppendEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	indicatorID, ok := urlID(w, r, "indicatorID")
	if !ok {
		return
	}
	var input services.EntryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	indicator, err := h.Indicators.AppendEntry(r.Context(), actor, indicatorID, input)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, indicator)
}

// ListEntries: GET /api/indicators/{indicatorID}/entries
func (h *IndicatorHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	indicatorID, ok := urlID(w, r, "indicatorID")
	if !ok {
		return
	}
	entries, err := h.Indicators.ListEntries(r.Context(), actor, indicatorID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}
