package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/auth"
	"github.com/diewo77/impacttracker/internal/handlers"
	"github.com/diewo77/impacttracker/internal/httpx"
	"github.com/diewo77/impacttracker/internal/mailer"
	"github.com/diewo77/impacttracker/internal/middleware"
	"github.com/diewo77/impacttracker/internal/models"
	"github.com/diewo77/impacttracker/internal/services"
)

// Deps regroupe les dépendances nécessaires à la construction du routeur.
type Deps struct {
	DB     *gorm.DB
	Tokens *auth.Tokens
	Mailer mailer.Sender
	Log    *slog.Logger
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(deps Deps) http.Handler {
	db := deps.DB

	audit := services.NewAuditService(db, deps.Log)
	allocations := services.NewAllocationService(db)
	projects := services.NewProjectService(db, allocations, deps.Mailer, audit)
	indicators := services.NewIndicatorService(db, audit)
	stats := services.NewStatsService(db, projects)

	authHandler := handlers.NewAuthHandler(db, deps.Tokens, audit)
	userHandler := handlers.NewUserHandler(db, deps.Mailer, audit)
	projectHandler := handlers.NewProjectHandler(projects, indicators)
	indicatorHandler := handlers.NewIndicatorHandler(indicators)
	statsHandler := handlers.NewStatsHandler(stats)
	auditHandler := handlers.NewAuditHandler(audit)

	// RequireAuth vérifie que le porteur du token existe toujours en base.
	verifier := func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	}
	requireAuth := auth.Middleware(deps.Tokens, verifier)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Log))
	r.Use(middleware.Metrics)

	// --- Health endpoints ---
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Lightweight DB check (SELECT 1) – ignore detailed errors in body
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth/me", authHandler.Me)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Put("/{userID}", userHandler.Update)
				r.Delete("/{userID}", userHandler.Delete)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Get("/{projectID}", projectHandler.Get)
				r.Put("/{projectID}", projectHandler.Update)
				r.Delete("/{projectID}", projectHandler.Delete)
				r.Get("/{projectID}/report", projectHandler.Report)
			})

			r.Route("/indicators", func(r chi.Router) {
				r.Get("/project/{projectID}", indicatorHandler.ListByProject)
				r.Post("/", indicatorHandler.Create)
				r.Put("/{indicatorID}", indicatorHandler.AppendEntry)
				r.Get("/{indicatorID}/entries", indicatorHandler.ListEntries)
			})

			r.Get("/stats/portfolio", statsHandler.Portfolio)
			r.Get("/audit-logs", auditHandler.List)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	return r
}
