package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/auth"
	"github.com/diewo77/impacttracker/internal/httpx"
	"github.com/diewo77/impacttracker/internal/models"
	"github.com/diewo77/impacttracker/internal/services"
)

// AuthHandler issues access tokens and exposes the current actor's profile.
type AuthHandler struct {
	DB     *gorm.DB
	Tokens *auth.Tokens
	Audit  *services.AuditService
}

func NewAuthHandler(db *gorm.DB, tokens *auth.Tokens, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{DB: db, Tokens: tokens, Audit: audit}
}

// Login: POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"email": "required", "password": "required"})
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same response as a bad password so emails cannot be enumerated.
			h.Audit.Record(r.Context(), 0, models.AuditActionLoginFailed, "user", 0, req.Email)
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		h.Audit.Record(r.Context(), 0, models.AuditActionLoginFailed, "user", user.ID, req.Email)
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	token, err := h.Tokens.Issue(&user)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.Audit.Record(r.Context(), user.ID, models.AuditActionLogin, "user", user.ID, user.Email)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"accessToken": token,
		"user":        user,
	})
}

// Me: GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var user models.User
	if err := h.DB.First(&user, actor.ID).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
