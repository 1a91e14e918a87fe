package model

import (
	"errors"
	"time"
)

// AuditLog records who did what to which resource. Every mutating service
// operation writes one.
type AuditLog struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	UserID       string    `gorm:"type:varchar(64);not null;index"`
	Action       string    `gorm:"type:varchar(64);not null;index"` // create/update/transition/approve/reject/delete
	ResourceType string    `gorm:"type:varchar(32);not null;index:idx_audit_resource"`
	ResourceID   string    `gorm:"type:varchar(64);not null;index:idx_audit_resource"`
	RequestID    string    `gorm:"type:varchar(64);index"`
	IP           string    `gorm:"type:varchar(45)"` // IPv4 or IPv6
	UserAgent    string    `gorm:"type:text"`
	Details      string    `gorm:"type:text"` // JSON blob
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName specifies the table name.
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Validate checks required audit log fields.
func (al *AuditLog) Validate() error {
	if al.ID == "" {
		return errors.New("audit log ID is required")
	}
	if al.UserID == "" {
		return errors.New("user ID is required")
	}
	if al.Action == "" {
		return errors.New("action is required")
	}
	if al.ResourceType == "" {
		return errors.New("resource type is required")
	}
	if al.ResourceID == "" {
		return errors.New("resource ID is required")
	}
	return nil
}
