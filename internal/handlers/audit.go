package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/impacttracker/internal/httpx"
	"github.com/diewo77/impacttracker/internal/services"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	Audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{Audit: audit}
}

// List: GET /api/audit-logs?userId=&action=&limit=
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	filter := services.AuditFilter{Action: r.URL.Query().Get("action")}
	if raw := r.URL.Query().Get("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"userId": "invalid_id"})
			return
		}
		filter.UserID = uint(id)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"limit": "invalid_value"})
			return
		}
		filter.Limit = n
	}
	logs, err := h.Audit.List(r.Context(), actor, filter)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, logs)
}
