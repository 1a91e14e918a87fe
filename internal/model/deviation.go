package model

import (
	"errors"
	"time"
)

// Deviation workflow stages.
const (
	DevStageOpened                = "opened"
	DevStageQAReview              = "qa_review"
	DevStageInvestigation         = "investigation"
	DevStageCAPAPlan              = "capa_plan"
	DevStagePendingCAPAApproval   = "pending_capa_approval"
	DevStagePendingCAPACompletion = "pending_capa_completion"
	DevStagePendingFinalApproval  = "pending_final_approval"
	DevStageCompleted             = "completed"
)

// Deviation is a planned or unplanned departure from an approved process,
// tracked through the 8-stage deviation workflow.
type Deviation struct {
	ID          uint   `gorm:"primaryKey"`
	DeviationID string `gorm:"column:deviation_id;type:varchar(20);uniqueIndex;not null"` // DEV-YYYY-NNNN

	Title       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	DeviationType string `gorm:"type:varchar(20)"` // planned/unplanned
	Category      string `gorm:"type:varchar(20)"`
	Severity      string `gorm:"type:varchar(20);index"` // critical/major/minor/observation

	Source          string `gorm:"type:varchar(25)"`
	SourceReference string `gorm:"type:text"`

	ProcessAffected     string `gorm:"type:text"`
	ProductAffected     string `gorm:"type:text"`
	BatchLotNumber      string `gorm:"type:varchar(100)"`
	QuantityAffected    *int   `gorm:""`
	ImpactAssessment    string `gorm:"type:text"`
	PatientSafetyImpact bool   `gorm:"default:false"`

	CurrentPhase   string    `gorm:"type:varchar(30);not null;index;default:opened"`
	PhaseEnteredAt time.Time `gorm:"not null"`

	// Investigation
	RootCause                string     `gorm:"type:text"`
	InvestigationSummary     string     `gorm:"type:text"`
	InvestigatedBy           string     `gorm:"type:varchar(64)"`
	InvestigationCompletedAt *time.Time `gorm:""`

	// Resolution
	CorrectiveAction         string `gorm:"type:text"`
	PreventiveAction         string `gorm:"type:text"`
	Disposition              string `gorm:"type:varchar(25)"` // use_as_is/rework/reject/...
	DispositionJustification string `gorm:"type:text"`

	// Cross-entity link: a deviation can spawn a CAPA
	CAPAID *uint `gorm:"column:capa_id;index"`

	ReportedDate      time.Time  `gorm:"not null"`
	TargetClosureDate *time.Time `gorm:""`
	ActualClosureDate *time.Time `gorm:""`

	ReportedBy string `gorm:"type:varchar(64);index"`
	AssignedTo string `gorm:"type:varchar(64)"`
	QAReviewer string `gorm:"column:qa_reviewer;type:varchar(64)"`

	RequiresCAPA         bool `gorm:"column:requires_capa;default:false"`
	IsRecurring          bool `gorm:"default:false"`
	RegulatoryReportable bool `gorm:"default:false"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64);index"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (Deviation) TableName() string {
	return "deviations"
}

// Validate checks required deviation fields.
func (d *Deviation) Validate() error {
	if d.DeviationID == "" {
		return errors.New("deviation ID is required")
	}
	if d.Title == "" {
		return errors.New("deviation title is required")
	}
	if d.CurrentPhase == "" {
		return errors.New("deviation stage is required")
	}
	return nil
}

// RecordID implements workflow.Record.
func (d *Deviation) RecordID() uint { return d.ID }

// BusinessKey implements workflow.Record.
func (d *Deviation) BusinessKey() string { return d.DeviationID }

// WorkflowEntity implements workflow.Record.
func (d *Deviation) WorkflowEntity() string { return "deviation" }

// WorkflowPhase implements workflow.Record.
func (d *Deviation) WorkflowPhase() string { return d.CurrentPhase }

// WorkflowPhaseEnteredAt implements workflow.Record.
func (d *Deviation) WorkflowPhaseEnteredAt() time.Time { return d.PhaseEnteredAt }

// WorkflowOwner implements workflow.Record.
func (d *Deviation) WorkflowOwner() string {
	if d.AssignedTo != "" {
		return d.AssignedTo
	}
	return d.ReportedBy
}

// EnterWorkflowPhase implements workflow.Record.
func (d *Deviation) EnterWorkflowPhase(phase string, at time.Time) {
	d.CurrentPhase = phase
	d.PhaseEnteredAt = at
}

// DaysOpen returns the number of days the deviation has been open.
func (d *Deviation) DaysOpen(now time.Time) int {
	end := now
	if d.ActualClosureDate != nil {
		end = *d.ActualClosureDate
	}
	return int(end.Sub(d.ReportedDate).Hours() / 24)
}
