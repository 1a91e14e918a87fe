package model

import (
	"errors"
	"time"
)

// Change control workflow stages.
const (
	CCStageSubmitted        = "submitted"
	CCStageScreening        = "screening"
	CCStageImpactAssessment = "impact_assessment"
	CCStageApproval         = "approval"
	CCStageImplementation   = "implementation"
	CCStageVerification     = "verification"
	CCStageClosed           = "closed"
)

// Change control task statuses.
const (
	CCTaskPending    = "pending"
	CCTaskInProgress = "in_progress"
	CCTaskCompleted  = "completed"
	CCTaskCancelled  = "cancelled"
)

// ChangeControl is a change request moving through the 7-stage change
// control workflow.
type ChangeControl struct {
	ID              uint   `gorm:"primaryKey"`
	ChangeControlID string `gorm:"column:change_control_id;type:varchar(20);uniqueIndex;not null"` // CC-YYYY-NNNN

	Title       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	ChangeType     string `gorm:"type:varchar(50)"` // document/process/system/equipment/...
	ChangeCategory string `gorm:"type:varchar(20)"` // major/minor/emergency
	RiskLevel      string `gorm:"type:varchar(20);index"`

	CurrentPhase   string    `gorm:"type:varchar(30);not null;index;default:submitted"`
	PhaseEnteredAt time.Time `gorm:"not null"`

	AffectedAreas     []string `gorm:"serializer:json;type:text"`
	AffectedDocuments []string `gorm:"serializer:json;type:text"`
	AffectedProcesses []string `gorm:"serializer:json;type:text"`
	AffectedProducts  []string `gorm:"serializer:json;type:text"`

	// Impact assessment
	ImpactSummary    string `gorm:"type:text"`
	QualityImpact    string `gorm:"type:text"`
	RegulatoryImpact string `gorm:"type:text"`
	SafetyImpact     string `gorm:"type:text"`
	TrainingImpact   bool   `gorm:"default:false"`
	ValidationImpact bool   `gorm:"default:false"`

	// Verification
	VerificationSummary  string     `gorm:"type:text"`
	VerificationEvidence string     `gorm:"type:text"`
	VerifiedBy           string     `gorm:"type:varchar(64)"`
	VerifiedDate         *time.Time `gorm:""`

	// Cross-entity links
	CAPAID      *uint `gorm:"column:capa_id;index"`
	DeviationID *uint `gorm:"index"`

	RequestedBy       string     `gorm:"type:varchar(64);index"`
	AssignedTo        string     `gorm:"type:varchar(64)"`
	TargetClosureDate *time.Time `gorm:""`
	ActualClosureDate *time.Time `gorm:""`

	Tasks []ChangeControlTask `gorm:"foreignKey:ChangeControlID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64);index"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (ChangeControl) TableName() string {
	return "change_controls"
}

// Validate checks required change control fields.
func (cc *ChangeControl) Validate() error {
	if cc.ChangeControlID == "" {
		return errors.New("change control ID is required")
	}
	if cc.Title == "" {
		return errors.New("change control title is required")
	}
	if cc.CurrentPhase == "" {
		return errors.New("change control stage is required")
	}
	return nil
}

// RecordID implements workflow.Record.
func (cc *ChangeControl) RecordID() uint { return cc.ID }

// BusinessKey implements workflow.Record.
func (cc *ChangeControl) BusinessKey() string { return cc.ChangeControlID }

// WorkflowEntity implements workflow.Record.
func (cc *ChangeControl) WorkflowEntity() string { return "change_control" }

// WorkflowPhase implements workflow.Record.
func (cc *ChangeControl) WorkflowPhase() string { return cc.CurrentPhase }

// WorkflowPhaseEnteredAt implements workflow.Record.
func (cc *ChangeControl) WorkflowPhaseEnteredAt() time.Time { return cc.PhaseEnteredAt }

// WorkflowOwner implements workflow.Record.
func (cc *ChangeControl) WorkflowOwner() string {
	if cc.AssignedTo != "" {
		return cc.AssignedTo
	}
	return cc.RequestedBy
}

// EnterWorkflowPhase implements workflow.Record.
func (cc *ChangeControl) EnterWorkflowPhase(phase string, at time.Time) {
	cc.CurrentPhase = phase
	cc.PhaseEnteredAt = at
}

// ChangeControlTask is an ordered implementation task under a change control.
type ChangeControlTask struct {
	ID              uint       `gorm:"primaryKey"`
	ChangeControlID uint       `gorm:"not null;index"`
	Title           string     `gorm:"type:varchar(255);not null"`
	Description     string     `gorm:"type:text"`
	AssignedTo      string     `gorm:"type:varchar(64)"`
	Sequence        int        `gorm:"not null"`
	Status          string     `gorm:"type:varchar(20);not null;default:pending"`
	DueDate         *time.Time `gorm:""`
	CompletedDate   *time.Time `gorm:""`
	Notes           string     `gorm:"type:text"`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
	CreatedBy       string     `gorm:"type:varchar(64)"`
	UpdatedBy       string     `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (ChangeControlTask) TableName() string {
	return "change_control_tasks"
}

// Validate checks required task fields.
func (t *ChangeControlTask) Validate() error {
	if t.ChangeControlID == 0 {
		return errors.New("change control reference is required")
	}
	if t.Title == "" {
		return errors.New("task title is required")
	}
	return nil
}
