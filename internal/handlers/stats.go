package handlers

import (
	"net/http"

	"github.com/diewo77/impacttracker/internal/httpx"
	"github.com/diewo77/impacttracker/internal/services"
)

// StatsHandler serves dashboard aggregates. All figures are derived on read
// from the actor-visible project set.
type StatsHandler struct {
	Stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{Stats: stats}
}

// Portfolio: GET /api/stats/portfolio
func (h *StatsHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stats, err := h.Stats.Portfolio(r.Context(), actor)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
