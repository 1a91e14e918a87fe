package model

import (
	"errors"
	"time"
)

// Hazard statuses.
const (
	HazardIdentified = "identified"
	HazardAssessed   = "assessed"
	HazardMitigated  = "mitigated"
	HazardAccepted   = "accepted"
	HazardMonitored  = "monitored"
)

// Hazard is a harm source identified during risk analysis.
type Hazard struct {
	ID       uint   `gorm:"primaryKey"`
	HazardID string `gorm:"column:hazard_id;type:varchar(20);uniqueIndex;not null"` // HAZ-YYYY-NNNN

	Name               string `gorm:"type:varchar(255);not null"`
	Description        string `gorm:"type:text"`
	Source             string `gorm:"type:varchar(50)"` // design/manufacturing/use/environmental/software
	HarmDescription    string `gorm:"type:text"`
	AffectedPopulation string `gorm:"type:varchar(500)"`
	Status             string `gorm:"type:varchar(50);not null;default:identified;index"`

	// Cross-entity links
	ComplaintID *uint `gorm:"index"`
	DeviationID *uint `gorm:"index"`

	Assessments []RiskAssessment `gorm:"foreignKey:HazardID;constraint:OnDelete:CASCADE"`
	Mitigations []RiskMitigation `gorm:"foreignKey:HazardID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64)"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (Hazard) TableName() string {
	return "hazards"
}

// Validate checks required hazard fields.
func (h *Hazard) Validate() error {
	if h.HazardID == "" {
		return errors.New("hazard ID is required")
	}
	if h.Name == "" {
		return errors.New("hazard name is required")
	}
	return nil
}

// RiskAssessment scores a hazard on 1-5 severity, occurrence and detection
// scales. RPN is a cache of the product and is recomputed on every save.
type RiskAssessment struct {
	ID       uint `gorm:"primaryKey"`
	HazardID uint `gorm:"not null;uniqueIndex:idx_assessment_type"`

	AssessmentType string `gorm:"type:varchar(50);not null;uniqueIndex:idx_assessment_type"` // initial/residual/post_market

	Severity   int `gorm:"not null"` // 1-5
	Occurrence int `gorm:"not null"` // 1-5
	Detection  int `gorm:"not null"` // 1-5
	RPN        int `gorm:"column:rpn;not null"`

	Acceptability string `gorm:"type:varchar(50)"` // acceptable/alara/unacceptable/conditional
	Justification string `gorm:"type:text"`
	AssessedBy    string `gorm:"type:varchar(64)"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64)"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (RiskAssessment) TableName() string {
	return "risk_assessments"
}

// Validate checks factor bounds on the 1-5 assessment scale.
func (ra *RiskAssessment) Validate() error {
	if ra.HazardID == 0 {
		return errors.New("hazard reference is required")
	}
	for _, f := range []int{ra.Severity, ra.Occurrence, ra.Detection} {
		if f < 1 || f > 5 {
			return errors.New("severity, occurrence and detection must be between 1 and 5")
		}
	}
	return nil
}

// RiskMitigation is an action that reduces a hazard's risk, optionally
// implemented through a change control or document revision.
type RiskMitigation struct {
	ID       uint `gorm:"primaryKey"`
	HazardID uint `gorm:"not null;index"`

	MitigationType       string `gorm:"type:varchar(50)"` // design_change/process_control/labeling_warning/training/protective_measure
	Description          string `gorm:"type:text;not null"`
	ImplementationStatus string `gorm:"type:varchar(50);not null;default:planned"`
	VerificationMethod   string `gorm:"type:text"`
	VerificationResult   string `gorm:"type:text"`

	// Cross-entity links
	ChangeControlID *uint `gorm:"index"`
	DocumentID      *uint `gorm:"index"`

	ResponsiblePerson string     `gorm:"type:varchar(64)"`
	TargetDate        *time.Time `gorm:""`
	CompletionDate    *time.Time `gorm:""`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64)"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (RiskMitigation) TableName() string {
	return "risk_mitigations"
}

// Validate checks required mitigation fields.
func (rm *RiskMitigation) Validate() error {
	if rm.HazardID == 0 {
		return errors.New("hazard reference is required")
	}
	if rm.Description == "" {
		return errors.New("mitigation description is required")
	}
	return nil
}

// FMEAWorksheet groups FMEA records for one product or process analysis.
type FMEAWorksheet struct {
	ID     uint   `gorm:"primaryKey"`
	FMEAID string `gorm:"column:fmea_id;type:varchar(20);uniqueIndex;not null"` // FMEA-YYYY-NNNN

	Title       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`
	FMEAType    string `gorm:"column:fmea_type;type:varchar(50)"` // design/process/use
	Status      string `gorm:"type:varchar(50);not null;default:draft;index"`

	Records []FMEARecord `gorm:"foreignKey:WorksheetID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64)"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (FMEAWorksheet) TableName() string {
	return "fmea_worksheets"
}

// Validate checks required worksheet fields.
func (w *FMEAWorksheet) Validate() error {
	if w.FMEAID == "" {
		return errors.New("FMEA ID is required")
	}
	if w.Title == "" {
		return errors.New("FMEA title is required")
	}
	return nil
}

// FMEARecord is one failure mode line in a worksheet, scored on 1-10
// scales. RPN and NewRPN are caches recomputed on every save.
type FMEARecord struct {
	ID          uint `gorm:"primaryKey"`
	WorksheetID uint `gorm:"not null;index"`

	ItemFunction string `gorm:"type:varchar(255);not null"`
	FailureMode  string `gorm:"type:varchar(255);not null"`
	FailureEffect string `gorm:"type:text"`
	FailureCause  string `gorm:"type:text"`

	CurrentControlsPrevention string `gorm:"type:text"`
	CurrentControlsDetection  string `gorm:"type:text"`

	Severity   int `gorm:"not null"` // 1-10
	Occurrence int `gorm:"not null"` // 1-10
	Detection  int `gorm:"not null"` // 1-10
	RPN        int `gorm:"column:rpn;not null"`

	RecommendedAction string `gorm:"type:text"`
	ActionTaken       string `gorm:"type:text"`

	NewSeverity   *int `gorm:""`
	NewOccurrence *int `gorm:""`
	NewDetection  *int `gorm:""`
	NewRPN        *int `gorm:"column:new_rpn"`

	ResponsiblePerson string     `gorm:"type:varchar(64)"`
	TargetDate        *time.Time `gorm:""`
	CompletionDate    *time.Time `gorm:""`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(64)"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name.
func (FMEARecord) TableName() string {
	return "fmea_records"
}

// Validate checks factor bounds on the 1-10 FMEA scale.
func (fr *FMEARecord) Validate() error {
	if fr.WorksheetID == 0 {
		return errors.New("worksheet reference is required")
	}
	for _, f := range []int{fr.Severity, fr.Occurrence, fr.Detection} {
		if f < 1 || f > 10 {
			return errors.New("severity, occurrence and detection must be between 1 and 10")
		}
	}
	return nil
}
