package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/metrics"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/risk"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/sequence"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

// CAPAService is the application service for CAPA records.
type CAPAService interface {
	Create(ctx context.Context, capa *model.CAPA, actor workflow.Actor) (*model.CAPA, error)
	Get(id uint) (*model.CAPA, error)
	GetByBusinessID(capaID string) (*model.CAPA, error)
	List(filter *repository.CAPAFilter) ([]*model.CAPA, error)
	Update(ctx context.Context, capa *model.CAPA, actor workflow.Actor) (*model.CAPA, error)
	Delete(ctx context.Context, id uint, actor workflow.Actor) error

	Transition(ctx context.Context, id uint, target string, comment string, signatureID *string, actor workflow.Actor) (*model.CAPA, error)
	AvailableTransitions(id uint) ([]workflow.TransitionOption, error)
	History(id uint) ([]*model.PhaseHistory, error)
	Approvals(id uint) ([]*model.Approval, error)
	RespondApproval(ctx context.Context, id uint, req *ApprovalResponseRequest, actor workflow.Actor) (*model.Approval, error)
}

// ApprovalResponseRequest carries one approver's decision for a phase.
type ApprovalResponseRequest struct {
	Phase       string  `json:"phase" binding:"required"`
	Status      string  `json:"status" binding:"required"` // approved/rejected/deferred
	Comments    string  `json:"comments"`
	SignatureID *string `json:"signature_id"`
}

type capaService struct {
	capaRepo     repository.CAPARepository
	approvalRepo repository.ApprovalRepository
	historyRepo  repository.HistoryRepository
	engine       *workflow.Engine
	generator    *sequence.Generator
	db           *gorm.DB
	auditLogSvc  AuditLogService
}

// NewCAPAService creates a CAPA service.
func NewCAPAService(
	capaRepo repository.CAPARepository,
	approvalRepo repository.ApprovalRepository,
	historyRepo repository.HistoryRepository,
	engine *workflow.Engine,
	generator *sequence.Generator,
	db *gorm.DB,
	auditLogSvc AuditLogService,
) CAPAService {
	return &capaService{
		capaRepo:     capaRepo,
		approvalRepo: approvalRepo,
		historyRepo:  historyRepo,
		engine:       engine,
		generator:    generator,
		db:           db,
		auditLogSvc:  auditLogSvc,
	}
}

// Create assigns a business ID and persists a new CAPA in the
// investigation phase.
func (s *capaService) Create(ctx context.Context, capa *model.CAPA, actor workflow.Actor) (*model.CAPA, error) {
	if err := s.checkLinks(capa); err != nil {
		return nil, err
	}

	now := time.Now()
	capa.CurrentPhase = model.CAPAPhaseInvestigation
	capa.PhaseEnteredAt = now
	capa.CreatedBy = actor.ID
	capa.UpdatedBy = actor.ID
	capa.PreActionRPN = risk.RPN(capa.RiskSeverity, capa.RiskOccurrence, capa.RiskDetection)
	if capa.EffectivenessResult == "" {
		capa.EffectivenessResult = model.EffectivenessPending
	}

	err := s.generator.CreateWithID(s.db, capa, "capas", "capa_id", sequence.PrefixCAPA, func(id string) {
		capa.CAPAID = id
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCreated("capa")
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "create", "capa", capa.CAPAID, map[string]string{
			"title": capa.Title,
		})
	}
	return capa, nil
}

// Get looks up a CAPA by primary key.
func (s *capaService) Get(id uint) (*model.CAPA, error) {
	return s.capaRepo.FindByID(id)
}

// GetByBusinessID looks up a CAPA by its business identifier.
func (s *capaService) GetByBusinessID(capaID string) (*model.CAPA, error) {
	return s.capaRepo.FindByBusinessID(capaID)
}

// List returns CAPA records matching a filter.
func (s *capaService) List(filter *repository.CAPAFilter) ([]*model.CAPA, error) {
	return s.capaRepo.FindByFilter(filter)
}

// Update persists non-phase field edits. The phase and business ID cannot
// be changed here; transitions go through the engine.
func (s *capaService) Update(ctx context.Context, capa *model.CAPA, actor workflow.Actor) (*model.CAPA, error) {
	existing, err := s.capaRepo.FindByID(capa.ID)
	if err != nil {
		return nil, err
	}
	capa.CAPAID = existing.CAPAID
	capa.CurrentPhase = existing.CurrentPhase
	capa.PhaseEnteredAt = existing.PhaseEnteredAt
	capa.CreatedBy = existing.CreatedBy
	capa.CreatedAt = existing.CreatedAt
	capa.UpdatedBy = actor.ID

	if err := s.checkLinks(capa); err != nil {
		return nil, err
	}
	capa.PreActionRPN = risk.RPN(capa.RiskSeverity, capa.RiskOccurrence, capa.RiskDetection)

	if err := s.capaRepo.Save(capa); err != nil {
		return nil, err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "update", "capa", capa.CAPAID, nil)
	}
	return capa, nil
}

// Delete removes a CAPA. References from deviations and change controls
// are cleared, not cascaded.
func (s *capaService) Delete(ctx context.Context, id uint, actor workflow.Actor) error {
	capa, err := s.capaRepo.FindByID(id)
	if err != nil {
		return err
	}
	if err := s.capaRepo.Delete(id); err != nil {
		return err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "delete", "capa", capa.CAPAID, nil)
	}
	return nil
}

// Transition moves a CAPA to the target phase through the engine.
func (s *capaService) Transition(ctx context.Context, id uint, target string, comment string, signatureID *string, actor workflow.Actor) (*model.CAPA, error) {
	capa, err := s.capaRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	err = s.engine.Transition(capa, workflow.Phase(target), actor, workflow.TransitionRequest{
		Comment:     comment,
		SignatureID: signatureID,
	})
	metrics.RecordTransition("capa", err == nil)
	if err != nil {
		return nil, err
	}

	if capa.CurrentPhase == model.CAPAPhaseClosure {
		now := time.Now()
		capa.ClosedDate = &now
		capa.ClosedBy = actor.ID
		if err := s.capaRepo.Save(capa); err != nil {
			return nil, err
		}
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "transition", "capa", capa.CAPAID, map[string]string{
			"to": target,
		})
	}
	return capa, nil
}

// AvailableTransitions lists the legal next phases for a CAPA.
func (s *capaService) AvailableTransitions(id uint) ([]workflow.TransitionOption, error) {
	capa, err := s.capaRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return s.engine.AvailableTransitions(workflow.EntityCAPA, workflow.Phase(capa.CurrentPhase))
}

// History returns the CAPA's phase transition trail.
func (s *capaService) History(id uint) ([]*model.PhaseHistory, error) {
	return s.historyRepo.FindByRecord("capa", id)
}

// Approvals returns the CAPA's approval rows across all phases.
func (s *capaService) Approvals(id uint) ([]*model.Approval, error) {
	return s.approvalRepo.FindForRecord("capa", id)
}

// RespondApproval records an approver's decision. CAPA approvals are
// advisory and never block a phase exit.
func (s *capaService) RespondApproval(ctx context.Context, id uint, req *ApprovalResponseRequest, actor workflow.Actor) (*model.Approval, error) {
	if _, err := s.capaRepo.FindByID(id); err != nil {
		return nil, err
	}
	approval, err := s.approvalRepo.Respond(
		"capa", id, req.Phase, actor.ID, req.Status, req.Comments, req.SignatureID, time.Now())
	if err != nil {
		return nil, err
	}
	metrics.RecordApproval("capa", req.Status)
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, req.Status, "capa_approval", req.Phase, nil)
	}
	return approval, nil
}

func (s *capaService) checkLinks(capa *model.CAPA) error {
	if err := checkReference(s.db, "deviations", "deviation", capa.DeviationID); err != nil {
		return err
	}
	if err := checkReference(s.db, "audit_findings", "audit_finding", capa.AuditFindingID); err != nil {
		return err
	}
	return checkReference(s.db, "complaints", "complaint", capa.ComplaintID)
}
