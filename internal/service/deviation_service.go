package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/metrics"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/sequence"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

// DeviationService is the application service for deviations.
type DeviationService interface {
	Create(ctx context.Context, dev *model.Deviation, actor workflow.Actor) (*model.Deviation, error)
	Get(id uint) (*model.Deviation, error)
	GetByBusinessID(deviationID string) (*model.Deviation, error)
	List(filter *repository.DeviationFilter) ([]*model.Deviation, error)
	Update(ctx context.Context, dev *model.Deviation, actor workflow.Actor) (*model.Deviation, error)
	Delete(ctx context.Context, id uint, actor workflow.Actor) error

	Transition(ctx context.Context, id uint, target string, comment string, signatureID *string, actor workflow.Actor) (*model.Deviation, error)
	AvailableTransitions(id uint) ([]workflow.TransitionOption, error)
	History(id uint) ([]*model.PhaseHistory, error)
	Approvals(id uint) ([]*model.Approval, error)
	RespondApproval(ctx context.Context, id uint, req *ApprovalResponseRequest, actor workflow.Actor) (*model.Approval, error)

	// SpawnCAPA creates a CAPA from the deviation and links the two.
	SpawnCAPA(ctx context.Context, id uint, capa *model.CAPA, actor workflow.Actor) (*model.CAPA, error)
}

type deviationService struct {
	devRepo      repository.DeviationRepository
	approvalRepo repository.ApprovalRepository
	historyRepo  repository.HistoryRepository
	capaSvc      CAPAService
	engine       *workflow.Engine
	generator    *sequence.Generator
	db           *gorm.DB
	auditLogSvc  AuditLogService
}

// NewDeviationService creates a deviation service.
func NewDeviationService(
	devRepo repository.DeviationRepository,
	approvalRepo repository.ApprovalRepository,
	historyRepo repository.HistoryRepository,
	capaSvc CAPAService,
	engine *workflow.Engine,
	generator *sequence.Generator,
	db *gorm.DB,
	auditLogSvc AuditLogService,
) DeviationService {
	return &deviationService{
		devRepo:      devRepo,
		approvalRepo: approvalRepo,
		historyRepo:  historyRepo,
		capaSvc:      capaSvc,
		engine:       engine,
		generator:    generator,
		db:           db,
		auditLogSvc:  auditLogSvc,
	}
}

// Create assigns a business ID and persists a new deviation in the opened
// stage.
func (s *deviationService) Create(ctx context.Context, dev *model.Deviation, actor workflow.Actor) (*model.Deviation, error) {
	if err := checkReference(s.db, "capas", "capa", dev.CAPAID); err != nil {
		return nil, err
	}

	now := time.Now()
	dev.CurrentPhase = model.DevStageOpened
	dev.PhaseEnteredAt = now
	dev.CreatedBy = actor.ID
	dev.UpdatedBy = actor.ID
	if dev.ReportedBy == "" {
		dev.ReportedBy = actor.ID
	}
	if dev.ReportedDate.IsZero() {
		dev.ReportedDate = now
	}

	err := s.generator.CreateWithID(s.db, dev, "deviations", "deviation_id", sequence.PrefixDeviation, func(id string) {
		dev.DeviationID = id
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCreated("deviation")
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "create", "deviation", dev.DeviationID, map[string]string{
			"title": dev.Title,
		})
	}
	return dev, nil
}

// Get looks up a deviation by primary key.
func (s *deviationService) Get(id uint) (*model.Deviation, error) {
	return s.devRepo.FindByID(id)
}

// GetByBusinessID looks up a deviation by its business identifier.
func (s *deviationService) GetByBusinessID(deviationID string) (*model.Deviation, error) {
	return s.devRepo.FindByBusinessID(deviationID)
}

// List returns deviations matching a filter.
func (s *deviationService) List(filter *repository.DeviationFilter) ([]*model.Deviation, error) {
	return s.devRepo.FindByFilter(filter)
}

// Update persists non-phase field edits.
func (s *deviationService) Update(ctx context.Context, dev *model.Deviation, actor workflow.Actor) (*model.Deviation, error) {
	existing, err := s.devRepo.FindByID(dev.ID)
	if err != nil {
		return nil, err
	}
	dev.DeviationID = existing.DeviationID
	dev.CurrentPhase = existing.CurrentPhase
	dev.PhaseEnteredAt = existing.PhaseEnteredAt
	dev.CreatedBy = existing.CreatedBy
	dev.CreatedAt = existing.CreatedAt
	dev.UpdatedBy = actor.ID

	if err := checkReference(s.db, "capas", "capa", dev.CAPAID); err != nil {
		return nil, err
	}
	if err := s.devRepo.Save(dev); err != nil {
		return nil, err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "update", "deviation", dev.DeviationID, nil)
	}
	return dev, nil
}

// Delete removes a deviation; CAPAs, change controls, and hazards that
// referenced it keep existing with the link cleared.
func (s *deviationService) Delete(ctx context.Context, id uint, actor workflow.Actor) error {
	dev, err := s.devRepo.FindByID(id)
	if err != nil {
		return err
	}
	if err := s.devRepo.Delete(id); err != nil {
		return err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "delete", "deviation", dev.DeviationID, nil)
	}
	return nil
}

// Transition moves a deviation to the target stage through the engine.
func (s *deviationService) Transition(ctx context.Context, id uint, target string, comment string, signatureID *string, actor workflow.Actor) (*model.Deviation, error) {
	dev, err := s.devRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	err = s.engine.Transition(dev, workflow.Phase(target), actor, workflow.TransitionRequest{
		Comment:     comment,
		SignatureID: signatureID,
	})
	metrics.RecordTransition("deviation", err == nil)
	if err != nil {
		return nil, err
	}

	if dev.CurrentPhase == model.DevStageCompleted {
		now := time.Now()
		dev.ActualClosureDate = &now
		if err := s.devRepo.Save(dev); err != nil {
			return nil, err
		}
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "transition", "deviation", dev.DeviationID, map[string]string{
			"to": target,
		})
	}
	return dev, nil
}

// AvailableTransitions lists the legal next stages for a deviation.
func (s *deviationService) AvailableTransitions(id uint) ([]workflow.TransitionOption, error) {
	dev, err := s.devRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return s.engine.AvailableTransitions(workflow.EntityDeviation, workflow.Phase(dev.CurrentPhase))
}

// History returns the deviation's stage transition trail.
func (s *deviationService) History(id uint) ([]*model.PhaseHistory, error) {
	return s.historyRepo.FindByRecord("deviation", id)
}

// Approvals returns the deviation's approval rows.
func (s *deviationService) Approvals(id uint) ([]*model.Approval, error) {
	return s.approvalRepo.FindForRecord("deviation", id)
}

// RespondApproval records an approver's decision for a stage.
func (s *deviationService) RespondApproval(ctx context.Context, id uint, req *ApprovalResponseRequest, actor workflow.Actor) (*model.Approval, error) {
	if _, err := s.devRepo.FindByID(id); err != nil {
		return nil, err
	}
	approval, err := s.approvalRepo.Respond(
		"deviation", id, req.Phase, actor.ID, req.Status, req.Comments, req.SignatureID, time.Now())
	if err != nil {
		return nil, err
	}
	metrics.RecordApproval("deviation", req.Status)
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, req.Status, "deviation_approval", req.Phase, nil)
	}
	return approval, nil
}

// SpawnCAPA creates a CAPA seeded from the deviation and links it back.
func (s *deviationService) SpawnCAPA(ctx context.Context, id uint, capa *model.CAPA, actor workflow.Actor) (*model.CAPA, error) {
	dev, err := s.devRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if capa.Title == "" {
		capa.Title = dev.Title
	}
	if capa.Source == "" {
		capa.Source = "deviation"
	}
	if capa.SourceReference == "" {
		capa.SourceReference = dev.DeviationID
	}
	capa.DeviationID = &dev.ID

	created, err := s.capaSvc.Create(ctx, capa, actor)
	if err != nil {
		return nil, err
	}

	dev.CAPAID = &created.ID
	dev.RequiresCAPA = true
	dev.UpdatedBy = actor.ID
	if err := s.devRepo.Save(dev); err != nil {
		return nil, err
	}
	return created, nil
}
