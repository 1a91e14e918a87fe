package model

import (
	"errors"
	"time"
)

// PhaseHistory is an immutable record of one workflow transition. Rows are
// only ever inserted; the observed sequence for a record is its audit trail
// of phase changes.
type PhaseHistory struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	EntityType string `gorm:"type:varchar(30);not null;index:idx_history_record"`
	RecordID   uint   `gorm:"not null;index:idx_history_record"`

	FromPhase string `gorm:"type:varchar(30)"`
	ToPhase   string `gorm:"type:varchar(30);not null"`
	Comment   string `gorm:"type:text"`
	Operator  string `gorm:"type:varchar(64);not null"` // "system" for automatic transitions

	TimeInPhaseSeconds *int64  `gorm:""`
	SignatureID        *string `gorm:"type:varchar(36)"`

	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName specifies the table name.
func (PhaseHistory) TableName() string {
	return "phase_history"
}

// Validate checks required history fields.
func (h *PhaseHistory) Validate() error {
	if h.ID == "" {
		return errors.New("history ID is required")
	}
	if h.EntityType == "" {
		return errors.New("entity type is required")
	}
	if h.RecordID == 0 {
		return errors.New("record reference is required")
	}
	if h.ToPhase == "" {
		return errors.New("to phase is required")
	}
	if h.Operator == "" {
		return errors.New("operator is required")
	}
	return nil
}
