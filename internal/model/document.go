package model

import (
	"errors"
	"fmt"
	"time"
)

// Document lifecycle states.
const (
	DocStateDraft          = "draft"
	DocStateInReview       = "in_review"
	DocStateApproved       = "approved"
	DocStateTrainingPeriod = "training_period"
	DocStateEffective      = "effective"
	DocStateSuperseded     = "superseded"
	DocStateObsolete       = "obsolete"
	DocStateArchived       = "archived"
	DocStateCancelled      = "cancelled"
)

// Document is a controlled document moving through the 9-state vault
// lifecycle with multi-approver sign-off on review.
type Document struct {
	ID         uint   `gorm:"primaryKey"`
	DocumentID string `gorm:"column:document_id;type:varchar(20);uniqueIndex;not null"` // DOC-YYYY-NNNN

	Title        string `gorm:"type:varchar(255);not null"`
	Description  string `gorm:"type:text"`
	InfocardType string `gorm:"type:varchar(50)"` // sop/work_instruction/form/...
	DocSubType   string `gorm:"type:varchar(50)"`

	MajorVersion int `gorm:"not null;default:1"`
	MinorVersion int `gorm:"not null;default:0"`

	CurrentPhase   string    `gorm:"type:varchar(30);not null;index;default:draft"`
	PhaseEnteredAt time.Time `gorm:"not null"`

	Owner      string `gorm:"type:varchar(64);index"`
	Department string `gorm:"type:varchar(100)"`

	TrainingRequired bool       `gorm:"default:false"`
	EffectiveDate    *time.Time `gorm:""`
	ReviewDueDate    *time.Time `gorm:""`
	ObsoleteDate     *time.Time `gorm:""`

	// Set when this document is superseded by a newer revision.
	SupersededByID *uint `gorm:"index"`

	FileName string `gorm:"type:varchar(255)"`
	FileHash string `gorm:"type:varchar(64)"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64);index"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (Document) TableName() string {
	return "documents"
}

// Validate checks required document fields.
func (doc *Document) Validate() error {
	if doc.DocumentID == "" {
		return errors.New("document ID is required")
	}
	if doc.Title == "" {
		return errors.New("document title is required")
	}
	if doc.CurrentPhase == "" {
		return errors.New("document state is required")
	}
	return nil
}

// VersionString returns the display form of the document version.
func (doc *Document) VersionString() string {
	return fmt.Sprintf("v%d.%d", doc.MajorVersion, doc.MinorVersion)
}

// RecordID implements workflow.Record.
func (doc *Document) RecordID() uint { return doc.ID }

// BusinessKey implements workflow.Record.
func (doc *Document) BusinessKey() string { return doc.DocumentID }

// WorkflowEntity implements workflow.Record.
func (doc *Document) WorkflowEntity() string { return "document" }

// WorkflowPhase implements workflow.Record.
func (doc *Document) WorkflowPhase() string { return doc.CurrentPhase }

// WorkflowPhaseEnteredAt implements workflow.Record.
func (doc *Document) WorkflowPhaseEnteredAt() time.Time { return doc.PhaseEnteredAt }

// WorkflowOwner implements workflow.Record.
func (doc *Document) WorkflowOwner() string {
	if doc.Owner != "" {
		return doc.Owner
	}
	return doc.CreatedBy
}

// EnterWorkflowPhase implements workflow.Record.
func (doc *Document) EnterWorkflowPhase(phase string, at time.Time) {
	doc.CurrentPhase = phase
	doc.PhaseEnteredAt = at
}

// CanBeEdited reports whether document content may still change.
func (doc *Document) CanBeEdited() bool {
	return doc.CurrentPhase == DocStateDraft || doc.CurrentPhase == DocStateInReview
}
