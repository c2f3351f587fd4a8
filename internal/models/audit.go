package models

import "time"

// Audit actions recorded by the services.
const (
	AuditActionCreate      = "create"
	AuditActionUpdate      = "update"
	AuditActionDelete      = "delete"
	AuditActionAppendEntry = "append_entry"
	AuditActionLogin       = "login"
	AuditActionLoginFailed = "login_failed"
)

// AuditLog records who changed what and when. Rows are appended by the
// services on every mutation; the API exposes them read-only to admins.
type AuditLog struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     *uint  `gorm:"index" json:"userId"` // nil for failed logins
	Action     string `gorm:"size:50;not null;index" json:"action"`
	EntityType string `gorm:"size:50;not null" json:"entityType"`
	EntityID   uint   `json:"entityId"`
	Details    string `gorm:"type:text" json:"details,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
