package repository

import (
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// AuditLogRepository is the storage interface for audit logs.
type AuditLogRepository interface {
	Save(log *model.AuditLog) error
	FindByUserID(userID string) ([]*model.AuditLog, error)
	FindByResource(resourceType string, resourceID string) ([]*model.AuditLog, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates an audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Save persists an audit log entry.
func (r *auditLogRepository) Save(log *model.AuditLog) error {
	return r.db.Save(log).Error
}

// FindByUserID lists audit logs by acting user, newest first.
func (r *auditLogRepository) FindByUserID(userID string) ([]*model.AuditLog, error) {
	var logs []*model.AuditLog
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// FindByResource lists audit logs for one resource, newest first.
func (r *auditLogRepository) FindByResource(resourceType string, resourceID string) ([]*model.AuditLog, error) {
	var logs []*model.AuditLog
	err := r.db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
