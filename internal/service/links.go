package service

import (
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

// checkReference verifies that an optional cross-entity link points at an
// existing row. A nil reference is always valid; a dangling one is
// rejected at write time.
func checkReference(db *gorm.DB, table string, targetType string, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.Table(table).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &workflow.DanglingReferenceError{TargetType: targetType, TargetID: *id}
	}
	return nil
}
