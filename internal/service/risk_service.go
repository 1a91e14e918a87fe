package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/metrics"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/risk"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/sequence"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

// RiskService is the application service for hazards, risk assessments,
// and FMEA worksheets. Cached RPN columns are recomputed on every save so
// they can never drift from the factors.
type RiskService interface {
	CreateHazard(ctx context.Context, h *model.Hazard, actor workflow.Actor) (*model.Hazard, error)
	GetHazard(id uint) (*model.Hazard, error)
	ListHazards() ([]*model.Hazard, error)
	UpdateHazard(ctx context.Context, h *model.Hazard, actor workflow.Actor) (*model.Hazard, error)
	DeleteHazard(ctx context.Context, id uint, actor workflow.Actor) error

	SaveAssessment(ctx context.Context, a *model.RiskAssessment, actor workflow.Actor) (*model.RiskAssessment, error)
	SaveMitigation(ctx context.Context, m *model.RiskMitigation, actor workflow.Actor) (*model.RiskMitigation, error)

	CreateWorksheet(ctx context.Context, w *model.FMEAWorksheet, actor workflow.Actor) (*model.FMEAWorksheet, error)
	GetWorksheet(id uint) (*model.FMEAWorksheet, error)
	SaveFMEARecord(ctx context.Context, rec *model.FMEARecord, actor workflow.Actor) (*model.FMEARecord, error)

	// RiskLevel classifies an assessment RPN; FMEARiskLevel classifies
	// an FMEA RPN. The two threshold tables are distinct.
	RiskLevel(rpn int) string
	FMEARiskLevel(rpn int) string
}

type riskService struct {
	riskRepo    repository.RiskRepository
	generator   *sequence.Generator
	db          *gorm.DB
	auditLogSvc AuditLogService
}

// NewRiskService creates a risk service.
func NewRiskService(riskRepo repository.RiskRepository, generator *sequence.Generator, db *gorm.DB, auditLogSvc AuditLogService) RiskService {
	return &riskService{
		riskRepo:    riskRepo,
		generator:   generator,
		db:          db,
		auditLogSvc: auditLogSvc,
	}
}

// CreateHazard assigns a business ID and persists a new hazard.
func (s *riskService) CreateHazard(ctx context.Context, h *model.Hazard, actor workflow.Actor) (*model.Hazard, error) {
	if err := s.checkHazardLinks(h); err != nil {
		return nil, err
	}
	h.CreatedBy = actor.ID
	h.UpdatedBy = actor.ID

	err := s.generator.CreateWithID(s.db, h, "hazards", "hazard_id", sequence.PrefixHazard, func(id string) {
		h.HazardID = id
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCreated("hazard")
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "create", "hazard", h.HazardID, nil)
	}
	return h, nil
}

// GetHazard looks up a hazard with its assessments and mitigations.
func (s *riskService) GetHazard(id uint) (*model.Hazard, error) {
	return s.riskRepo.FindHazardByID(id)
}

// ListHazards lists all hazards.
func (s *riskService) ListHazards() ([]*model.Hazard, error) {
	return s.riskRepo.FindHazards()
}

// UpdateHazard persists hazard edits.
func (s *riskService) UpdateHazard(ctx context.Context, h *model.Hazard, actor workflow.Actor) (*model.Hazard, error) {
	existing, err := s.riskRepo.FindHazardByID(h.ID)
	if err != nil {
		return nil, err
	}
	h.HazardID = existing.HazardID
	h.CreatedBy = existing.CreatedBy
	h.CreatedAt = existing.CreatedAt
	h.UpdatedBy = actor.ID

	if err := s.checkHazardLinks(h); err != nil {
		return nil, err
	}
	if err := s.riskRepo.SaveHazard(h); err != nil {
		return nil, err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "update", "hazard", h.HazardID, nil)
	}
	return h, nil
}

// DeleteHazard removes a hazard with its assessments and mitigations.
func (s *riskService) DeleteHazard(ctx context.Context, id uint, actor workflow.Actor) error {
	h, err := s.riskRepo.FindHazardByID(id)
	if err != nil {
		return err
	}
	if err := s.riskRepo.DeleteHazard(id); err != nil {
		return err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "delete", "hazard", h.HazardID, nil)
	}
	return nil
}

// SaveAssessment validates factor bounds, recomputes the RPN cache, and
// derives acceptability from the assessment threshold table.
func (s *riskService) SaveAssessment(ctx context.Context, a *model.RiskAssessment, actor workflow.Actor) (*model.RiskAssessment, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := checkReference(s.db, "hazards", "hazard", &a.HazardID); err != nil {
		return nil, err
	}

	a.RPN = risk.RPN(a.Severity, a.Occurrence, a.Detection)
	if a.CreatedBy == "" {
		a.CreatedBy = actor.ID
	}
	a.UpdatedBy = actor.ID

	if err := s.riskRepo.SaveAssessment(a); err != nil {
		return nil, err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "assess", "hazard_assessment", a.AssessmentType, map[string]int{
			"rpn": a.RPN,
		})
	}
	return a, nil
}

// SaveMitigation validates cross-links and persists a mitigation.
func (s *riskService) SaveMitigation(ctx context.Context, m *model.RiskMitigation, actor workflow.Actor) (*model.RiskMitigation, error) {
	if err := checkReference(s.db, "hazards", "hazard", &m.HazardID); err != nil {
		return nil, err
	}
	if err := checkReference(s.db, "change_controls", "change_control", m.ChangeControlID); err != nil {
		return nil, err
	}
	if err := checkReference(s.db, "documents", "document", m.DocumentID); err != nil {
		return nil, err
	}

	if m.CreatedBy == "" {
		m.CreatedBy = actor.ID
	}
	m.UpdatedBy = actor.ID
	return m, s.riskRepo.SaveMitigation(m)
}

// CreateWorksheet assigns a business ID and persists an FMEA worksheet.
func (s *riskService) CreateWorksheet(ctx context.Context, w *model.FMEAWorksheet, actor workflow.Actor) (*model.FMEAWorksheet, error) {
	w.CreatedBy = actor.ID
	w.UpdatedBy = actor.ID

	err := s.generator.CreateWithID(s.db, w, "fmea_worksheets", "fmea_id", sequence.PrefixFMEA, func(id string) {
		w.FMEAID = id
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCreated("fmea_worksheet")
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "create", "fmea_worksheet", w.FMEAID, nil)
	}
	return w, nil
}

// GetWorksheet looks up a worksheet with its records.
func (s *riskService) GetWorksheet(id uint) (*model.FMEAWorksheet, error) {
	return s.riskRepo.FindWorksheetByID(id)
}

// SaveFMEARecord validates factor bounds and recomputes both RPN caches
// before persisting a failure mode line.
func (s *riskService) SaveFMEARecord(ctx context.Context, rec *model.FMEARecord, actor workflow.Actor) (*model.FMEARecord, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if err := checkReference(s.db, "fmea_worksheets", "fmea_worksheet", &rec.WorksheetID); err != nil {
		return nil, err
	}

	rec.RPN = risk.RPN(rec.Severity, rec.Occurrence, rec.Detection)
	if rec.NewSeverity != nil && rec.NewOccurrence != nil && rec.NewDetection != nil {
		newRPN := risk.RPN(*rec.NewSeverity, *rec.NewOccurrence, *rec.NewDetection)
		rec.NewRPN = &newRPN
	} else {
		rec.NewRPN = nil
	}

	if rec.CreatedBy == "" {
		rec.CreatedBy = actor.ID
	}
	rec.UpdatedBy = actor.ID
	return rec, s.riskRepo.SaveFMEARecord(rec)
}

// RiskLevel classifies an assessment RPN.
func (s *riskService) RiskLevel(rpn int) string {
	return risk.AssessmentThresholds.Classify(rpn)
}

// FMEARiskLevel classifies an FMEA RPN.
func (s *riskService) FMEARiskLevel(rpn int) string {
	return risk.FMEAThresholds.Classify(rpn)
}

func (s *riskService) checkHazardLinks(h *model.Hazard) error {
	if err := checkReference(s.db, "complaints", "complaint", h.ComplaintID); err != nil {
		return err
	}
	return checkReference(s.db, "deviations", "deviation", h.DeviationID)
}
