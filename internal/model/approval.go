package model

import (
	"errors"
	"time"
)

// Approval statuses.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
	ApprovalDeferred = "deferred"
)

// Approval tiers. Which tiers a phase seeds is declared in the workflow
// registry; document review approvers are registered per record instead.
const (
	TierCoordinator    = "coordinator"
	TierManager        = "manager"
	TierQAHead         = "qa_head"
	TierDepartmentHead = "department_head"
	TierQAManager      = "qa_manager"
	TierRegulatory     = "regulatory"
	TierManagement     = "management"
	TierApprover       = "approver"
)

// Approval is one tier of a phase sign-off chain for a workflow record.
// At most one row exists per (entity, record, phase, tier, approver); a
// repeated response overwrites the previous one.
type Approval struct {
	ID uint `gorm:"primaryKey"`

	EntityType string `gorm:"type:varchar(30);not null;uniqueIndex:idx_approvals_chain;index:idx_approvals_record"`
	RecordID   uint   `gorm:"not null;uniqueIndex:idx_approvals_chain;index:idx_approvals_record"`
	Phase      string `gorm:"type:varchar(30);not null;uniqueIndex:idx_approvals_chain"`

	Tier     string `gorm:"type:varchar(30);not null;uniqueIndex:idx_approvals_chain"`
	Sequence int    `gorm:"not null"`
	Approver string `gorm:"type:varchar(64);uniqueIndex:idx_approvals_chain;index"`

	Status      string     `gorm:"type:varchar(20);not null;default:pending"`
	Comments    string     `gorm:"type:text"`
	RespondedAt *time.Time `gorm:""`
	SignatureID *string    `gorm:"type:varchar(36)"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64)"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (Approval) TableName() string {
	return "approvals"
}

// Validate checks required approval fields.
func (a *Approval) Validate() error {
	if a.EntityType == "" {
		return errors.New("entity type is required")
	}
	if a.RecordID == 0 {
		return errors.New("record reference is required")
	}
	if a.Phase == "" {
		return errors.New("phase is required")
	}
	if a.Tier == "" {
		return errors.New("approval tier is required")
	}
	return nil
}

// IsTerminal reports whether the approval already carries a response.
func (a *Approval) IsTerminal() bool {
	return a.Status == ApprovalApproved || a.Status == ApprovalRejected || a.Status == ApprovalDeferred
}

// ElectronicSignature is a 21 CFR Part 11 style signature manifest row,
// created after the signer re-authenticates.
type ElectronicSignature struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `gorm:"type:varchar(64);not null;index"`
	Reason      string    `gorm:"type:varchar(100);not null"` // approval/review/authorship
	Meaning     string    `gorm:"type:text"`
	ContentHash string    `gorm:"type:varchar(64);not null"`
	IPAddress   string    `gorm:"type:varchar(45)"`
	SignedAt    time.Time `gorm:"not null;index"`
}

// TableName specifies the table name.
func (ElectronicSignature) TableName() string {
	return "electronic_signatures"
}

// Validate checks required signature fields.
func (s *ElectronicSignature) Validate() error {
	if s.ID == "" {
		return errors.New("signature ID is required")
	}
	if s.UserID == "" {
		return errors.New("signer is required")
	}
	if s.ContentHash == "" {
		return errors.New("content hash is required")
	}
	return nil
}
