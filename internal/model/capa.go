package model

import (
	"errors"
	"time"
)

// CAPA phase values. The transition graph lives in the workflow registry;
// these are the persisted column values.
const (
	CAPAPhaseInvestigation   = "investigation"
	CAPAPhaseRootCause       = "root_cause"
	CAPAPhaseRiskAffirmation = "risk_affirmation"
	CAPAPhasePlan            = "capa_plan"
	CAPAPhaseImplementation  = "implementation"
	CAPAPhaseEffectiveness   = "effectiveness"
	CAPAPhaseClosure         = "closure"
)

// EffectivenessPending is the default sentinel for an unverified CAPA.
const EffectivenessPending = "pending"

// PlannedAction is a single corrective or preventive action in the CAPA plan.
type PlannedAction struct {
	Description string     `json:"description"`
	ActionType  string     `json:"action_type"` // corrective/preventive
	Owner       string     `json:"owner"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      string     `json:"status,omitempty"`
}

// CAPA is a corrective and preventive action record.
type CAPA struct {
	ID     uint   `gorm:"primaryKey"`
	CAPAID string `gorm:"column:capa_id;type:varchar(20);uniqueIndex;not null"` // CAPA-YYYY-NNNN

	Title           string `gorm:"type:varchar(255);not null"`
	Description     string `gorm:"type:text"`
	Source          string `gorm:"type:varchar(50)"` // complaint/internal_audit/deviation/...
	SourceReference string `gorm:"type:text"`
	Category        string `gorm:"type:varchar(50)"`
	Priority        string `gorm:"type:varchar(20);index"`
	CAPAType        string `gorm:"column:capa_type;type:varchar(20)"` // corrective/preventive/both

	CurrentPhase   string    `gorm:"type:varchar(30);not null;index;default:investigation"`
	PhaseEnteredAt time.Time `gorm:"not null"`

	// 5W investigation
	WhatHappened  string     `gorm:"type:text"`
	WhenHappened  *time.Time `gorm:""`
	WhereHappened string     `gorm:"type:varchar(500)"`
	WhoAffected   string     `gorm:"type:varchar(500)"`
	WhyHappened   string     `gorm:"type:text"`
	HowDiscovered string     `gorm:"type:text"`

	// Root cause analysis
	RootCauseAnalysisMethod string     `gorm:"type:varchar(100)"`
	RootCause               string     `gorm:"type:text"`
	ContributingFactors     []string   `gorm:"serializer:json;type:text"`
	RootCauseVerified       bool       `gorm:"default:false"`
	RootCauseVerifiedBy     string     `gorm:"type:varchar(64)"`
	RootCauseVerifiedDate   *time.Time `gorm:""`

	// Risk matrix (1-5 scale)
	RiskSeverity      int    `gorm:"default:0"`
	RiskOccurrence    int    `gorm:"default:0"`
	RiskDetection     int    `gorm:"default:0"`
	RiskAcceptability string `gorm:"type:varchar(50)"`
	PreActionRPN      int    `gorm:"column:pre_action_rpn;default:0"`
	PostActionRPN     *int   `gorm:"column:post_action_rpn"`

	// Action plan
	PlannedActions       []PlannedAction `gorm:"serializer:json;type:text"`
	ResponsiblePerson    string          `gorm:"type:varchar(64)"`
	TargetCompletionDate *time.Time      `gorm:""`
	ActualCompletionDate *time.Time      `gorm:""`

	// Implementation
	ImplementationNotes    string `gorm:"type:text"`
	ImplementationEvidence string `gorm:"type:text"`
	ImplementationVerified bool   `gorm:"default:false"`

	// Effectiveness verification
	EffectivenessCriteria  string     `gorm:"type:text"`
	EffectivenessCheckDate *time.Time `gorm:""`
	EffectivenessResult    string     `gorm:"type:varchar(50);not null;default:pending"`
	EffectivenessEvidence  string     `gorm:"type:text"`

	// Extension request (data only, approved out of band)
	HasExtension        bool       `gorm:"default:false"`
	ExtensionReason     string     `gorm:"type:text"`
	ExtensionNewDueDate *time.Time `gorm:""`

	// Closure
	ClosureComments string     `gorm:"type:text"`
	ClosedDate      *time.Time `gorm:""`
	ClosedBy        string     `gorm:"type:varchar(64)"`

	// Cross-entity links (cleared, never cascaded, when the target goes away)
	DeviationID    *uint `gorm:"index"`
	AuditFindingID *uint `gorm:"index"`
	ComplaintID    *uint `gorm:"index"`

	// Assignment
	AssignedTo  string `gorm:"type:varchar(64);index"`
	Coordinator string `gorm:"type:varchar(64)"`

	RequiresManagementReview bool `gorm:"default:false"`
	IsRecurring              bool `gorm:"default:false"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64);index"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (CAPA) TableName() string {
	return "capas"
}

// Validate checks required CAPA fields.
func (c *CAPA) Validate() error {
	if c.CAPAID == "" {
		return errors.New("capa ID is required")
	}
	if c.Title == "" {
		return errors.New("capa title is required")
	}
	if c.CurrentPhase == "" {
		return errors.New("capa phase is required")
	}
	return nil
}

// RecordID implements workflow.Record.
func (c *CAPA) RecordID() uint { return c.ID }

// BusinessKey implements workflow.Record.
func (c *CAPA) BusinessKey() string { return c.CAPAID }

// WorkflowEntity implements workflow.Record.
func (c *CAPA) WorkflowEntity() string { return "capa" }

// WorkflowPhase implements workflow.Record.
func (c *CAPA) WorkflowPhase() string { return c.CurrentPhase }

// WorkflowPhaseEnteredAt implements workflow.Record.
func (c *CAPA) WorkflowPhaseEnteredAt() time.Time { return c.PhaseEnteredAt }

// WorkflowOwner implements workflow.Record.
func (c *CAPA) WorkflowOwner() string {
	if c.AssignedTo != "" {
		return c.AssignedTo
	}
	return c.CreatedBy
}

// EnterWorkflowPhase implements workflow.Record.
func (c *CAPA) EnterWorkflowPhase(phase string, at time.Time) {
	c.CurrentPhase = phase
	c.PhaseEnteredAt = at
}
