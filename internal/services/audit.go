package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/models"
	"github.com/diewo77/impacttracker/internal/policy"
)

// AuditService appends and serves the audit trail. Writes are best-effort:
// a failed audit insert is logged but never fails the operation it records.
type AuditService struct {
	DB  *gorm.DB
	Log *slog.Logger
}

func NewAuditService(db *gorm.DB, log *slog.Logger) *AuditService {
	return &AuditService{DB: db, Log: log}
}

// Record appends one audit row. A zero userID is stored as NULL (failed
// logins have no resolved user).
func (s *AuditService) Record(ctx context.Context, userID uint, action, entityType string, entityID uint, details string) {
	row := models.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if userID != 0 {
		row.UserID = &userID
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		s.Log.Error("échec d'écriture du journal d'audit", "action", action, "entity_type", entityType, "error", err)
	}
}

// AuditFilter narrows a List call. Zero values mean no filter.
type AuditFilter struct {
	UserID uint
	Action string
	Limit  int
}

const auditDefaultLimit = 100

// List returns audit rows, most recent first. Admin only.
func (s *AuditService) List(ctx context.Context, actor policy.Actor, filter AuditFilter) ([]models.AuditLog, error) {
	if !policy.CanViewAuditLog(actor) {
		return nil, ErrAccessDenied
	}
	q := s.DB.WithContext(ctx).Model(&models.AuditLog{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	limit := filter.Limit
	if limit <= 0 || limit > auditDefaultLimit {
		limit = auditDefaultLimit
	}
	var rows []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return rows, nil
}
