package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/auth"
	"github.com/diewo77/impacttracker/internal/httpx"
	"github.com/diewo77/impacttracker/internal/mailer"
	"github.com/diewo77/impacttracker/internal/models"
	"github.com/diewo77/impacttracker/internal/policy"
	"github.com/diewo77/impacttracker/internal/services"
	"github.com/diewo77/impacttracker/internal/validation"
)

// UserHandler is the admin-only user administration surface.
type UserHandler struct {
	DB     *gorm.DB
	Mailer mailer.Sender
	Audit  *services.AuditService
}

func NewUserHandler(db *gorm.DB, sender mailer.Sender, audit *services.AuditService) *UserHandler {
	return &UserHandler{DB: db, Mailer: sender, Audit: audit}
}

type userPayload struct {
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
	Password  string      `json:"password"`
}

func (p *userPayload) normalize() {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
}

func (p *userPayload) validate(passwordRequired bool) validation.Violations {
	v := validation.Violations{}
	validation.Required("email", p.Email, v)
	validation.Required("firstName", p.FirstName, v)
	validation.Required("lastName", p.LastName, v)
	if !p.Role.Valid() {
		v["role"] = "invalid_value"
	}
	if passwordRequired && len(p.Password) < 8 {
		v["password"] = "too_short"
	}
	if p.Password != "" && len(p.Password) < 8 {
		v["password"] = "too_short"
	}
	return v
}

func requireAdmin(w http.ResponseWriter, r *http.Request) (policy.Actor, bool) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return policy.Actor{}, false
	}
	if !policy.CanManageUsers(actor) {
		httpx.JSONError(w, http.StatusForbidden, "access_denied", nil)
		return policy.Actor{}, false
	}
	return actor, true
}

// List: GET /api/users?role=donateur
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	q := h.DB.Model(&models.User{})
	if role := r.URL.Query().Get("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

// Create: POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req userPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.normalize()
	if v := req.validate(true); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "email_already_in_use", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	subject, body := mailer.AccountCreated(user.FirstName)
	h.Mailer.Send(user.Email, subject, body)
	h.Audit.Record(r.Context(), actor.ID, models.AuditActionCreate, "user", user.ID, user.Email)
	httpx.JSON(w, http.StatusCreated, user)
}

// Update: PUT /api/users/{userID}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "userID")
	if !ok {
		return
	}
	var req userPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.normalize()
	if v := req.validate(false); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ? AND id <> ?", req.Email, id).Count(&count).Error; err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "email_already_in_use", nil)
		return
	}

	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Role = req.Role
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			return
		}
		user.PasswordHash = hash
	}
	if err := h.DB.Save(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	h.Audit.Record(r.Context(), actor.ID, models.AuditActionUpdate, "user", user.ID, user.Email)
	httpx.JSON(w, http.StatusOK, user)
}

// Delete: DELETE /api/users/{userID}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "userID")
	if !ok {
		return
	}
	if id == actor.ID {
		httpx.JSONError(w, http.StatusBadRequest, "cannot_delete_self", nil)
		return
	}
	res := h.DB.Delete(&models.User{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	h.Audit.Record(r.Context(), actor.ID, models.AuditActionDelete, "user", id, "")
	w.WriteHeader(http.StatusNoContent)
}
