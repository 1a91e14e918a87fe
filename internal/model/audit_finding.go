package model

import (
	"errors"
	"time"
)

// AuditFinding is a nonconformity raised during an internal or external
// audit. Kept minimal here; findings exist so CAPAs can reference their
// origin, the audit program itself is managed elsewhere.
type AuditFinding struct {
	ID        uint   `gorm:"primaryKey"`
	FindingID string `gorm:"column:finding_id;type:varchar(20);uniqueIndex;not null"` // AF-YYYY-NNNN

	Title          string `gorm:"type:varchar(255);not null"`
	Description    string `gorm:"type:text"`
	Classification string `gorm:"type:varchar(20)"` // critical/major/minor/observation
	AuditReference string `gorm:"type:varchar(100)"`
	Status         string `gorm:"type:varchar(30);not null;default:open;index"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64)"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (AuditFinding) TableName() string {
	return "audit_findings"
}

// Validate checks required finding fields.
func (af *AuditFinding) Validate() error {
	if af.FindingID == "" {
		return errors.New("finding ID is required")
	}
	if af.Title == "" {
		return errors.New("finding title is required")
	}
	return nil
}

// Complaint is a customer complaint stub. Complaint intake is handled by a
// separate surface; the row exists so hazards and CAPAs can link to it.
type Complaint struct {
	ID          uint   `gorm:"primaryKey"`
	ComplaintID string `gorm:"column:complaint_id;type:varchar(20);uniqueIndex;not null"` // CMP-YYYY-NNNN

	Title       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"type:varchar(30);not null;default:open;index"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64)"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (Complaint) TableName() string {
	return "complaints"
}

// Validate checks required complaint fields.
func (c *Complaint) Validate() error {
	if c.ComplaintID == "" {
		return errors.New("complaint ID is required")
	}
	if c.Title == "" {
		return errors.New("complaint title is required")
	}
	return nil
}
