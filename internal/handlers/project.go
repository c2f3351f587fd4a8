package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/diewo77/impacttracker/internal/httpx"
	"github.com/diewo77/impacttracker/internal/report"
	"github.com/diewo77/impacttracker/internal/services"
)

// ProjectHandler exposes the project CRUD boundary.
type ProjectHandler struct {
	Projects   *services.ProjectService
	Indicators *services.IndicatorService
}

func NewProjectHandler(projects *services.ProjectService, indicators *services.IndicatorService) *ProjectHandler {
	return &ProjectHandler{Projects: projects, Indicators: indicators}
}

// List: GET /api/projects (role-scoped).
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	projects, err := h.Projects.ListForActor(r.Context(), actor)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projects)
}

// Get: GET /api/projects/{projectID}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	project, err := h.Projects.Get(r.Context(), actor, id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// Create: POST /api/projects (admin only).
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var input services.ProjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	project, err := h.Projects.Create(r.Context(), actor, input)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

// Update: PUT /api/projects/{projectID} (admin only, full replace).
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	var input services.ProjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	project, err := h.Projects.Update(r.Context(), actor, id, input)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// Delete: DELETE /api/projects/{projectID} (admin only, cascades).
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	if err := h.Projects.Delete(r.Context(), actor, id); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Report: GET /api/projects/{projectID}/report, a plain-text summary built
// from already-fetched data; visibility follows the project read path.
func (h *ProjectHandler) Report(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	project, err := h.Projects.Get(r.Context(), actor, id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	indicators, err := h.Indicators.ListByProject(r.Context(), actor, id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	text := report.Render(report.Input{
		Project:     project.Project,
		Indicators:  indicators,
		GeneratedAt: time.Now(),
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
