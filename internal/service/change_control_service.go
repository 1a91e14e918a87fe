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

// ChangeControlService is the application service for change controls.
type ChangeControlService interface {
	Create(ctx context.Context, cc *model.ChangeControl, actor workflow.Actor) (*model.ChangeControl, error)
	Get(id uint) (*model.ChangeControl, error)
	GetByBusinessID(changeControlID string) (*model.ChangeControl, error)
	List(filter *repository.ChangeControlFilter) ([]*model.ChangeControl, error)
	Update(ctx context.Context, cc *model.ChangeControl, actor workflow.Actor) (*model.ChangeControl, error)
	Delete(ctx context.Context, id uint, actor workflow.Actor) error

	Transition(ctx context.Context, id uint, target string, comment string, signatureID *string, actor workflow.Actor) (*model.ChangeControl, error)
	AvailableTransitions(id uint) ([]workflow.TransitionOption, error)
	History(id uint) ([]*model.PhaseHistory, error)
	Approvals(id uint) ([]*model.Approval, error)
	RespondApproval(ctx context.Context, id uint, req *ApprovalResponseRequest, actor workflow.Actor) (*model.Approval, error)

	AddTask(ctx context.Context, task *model.ChangeControlTask, actor workflow.Actor) (*model.ChangeControlTask, error)
	UpdateTask(ctx context.Context, task *model.ChangeControlTask, actor workflow.Actor) (*model.ChangeControlTask, error)
	Tasks(changeControlID uint) ([]*model.ChangeControlTask, error)
}

type changeControlService struct {
	ccRepo       repository.ChangeControlRepository
	approvalRepo repository.ApprovalRepository
	historyRepo  repository.HistoryRepository
	engine       *workflow.Engine
	generator    *sequence.Generator
	db           *gorm.DB
	auditLogSvc  AuditLogService
}

// NewChangeControlService creates a change control service.
func NewChangeControlService(
	ccRepo repository.ChangeControlRepository,
	approvalRepo repository.ApprovalRepository,
	historyRepo repository.HistoryRepository,
	engine *workflow.Engine,
	generator *sequence.Generator,
	db *gorm.DB,
	auditLogSvc AuditLogService,
) ChangeControlService {
	return &changeControlService{
		ccRepo:       ccRepo,
		approvalRepo: approvalRepo,
		historyRepo:  historyRepo,
		engine:       engine,
		generator:    generator,
		db:           db,
		auditLogSvc:  auditLogSvc,
	}
}

// Create assigns a business ID and persists a new change control in the
// submitted stage.
func (s *changeControlService) Create(ctx context.Context, cc *model.ChangeControl, actor workflow.Actor) (*model.ChangeControl, error) {
	if err := s.checkLinks(cc); err != nil {
		return nil, err
	}

	now := time.Now()
	cc.CurrentPhase = model.CCStageSubmitted
	cc.PhaseEnteredAt = now
	cc.CreatedBy = actor.ID
	cc.UpdatedBy = actor.ID
	if cc.RequestedBy == "" {
		cc.RequestedBy = actor.ID
	}

	err := s.generator.CreateWithID(s.db, cc, "change_controls", "change_control_id", sequence.PrefixChangeControl, func(id string) {
		cc.ChangeControlID = id
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCreated("change_control")
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "create", "change_control", cc.ChangeControlID, map[string]string{
			"title": cc.Title,
		})
	}
	return cc, nil
}

// Get looks up a change control with its tasks.
func (s *changeControlService) Get(id uint) (*model.ChangeControl, error) {
	return s.ccRepo.FindByID(id)
}

// GetByBusinessID looks up a change control by its business identifier.
func (s *changeControlService) GetByBusinessID(changeControlID string) (*model.ChangeControl, error) {
	return s.ccRepo.FindByBusinessID(changeControlID)
}

// List returns change controls matching a filter.
func (s *changeControlService) List(filter *repository.ChangeControlFilter) ([]*model.ChangeControl, error) {
	return s.ccRepo.FindByFilter(filter)
}

// Update persists non-phase field edits.
func (s *changeControlService) Update(ctx context.Context, cc *model.ChangeControl, actor workflow.Actor) (*model.ChangeControl, error) {
	existing, err := s.ccRepo.FindByID(cc.ID)
	if err != nil {
		return nil, err
	}
	cc.ChangeControlID = existing.ChangeControlID
	cc.CurrentPhase = existing.CurrentPhase
	cc.PhaseEnteredAt = existing.PhaseEnteredAt
	cc.CreatedBy = existing.CreatedBy
	cc.CreatedAt = existing.CreatedAt
	cc.UpdatedBy = actor.ID

	if err := s.checkLinks(cc); err != nil {
		return nil, err
	}
	if err := s.ccRepo.Save(cc); err != nil {
		return nil, err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "update", "change_control", cc.ChangeControlID, nil)
	}
	return cc, nil
}

// Delete removes a change control and its tasks.
func (s *changeControlService) Delete(ctx context.Context, id uint, actor workflow.Actor) error {
	cc, err := s.ccRepo.FindByID(id)
	if err != nil {
		return err
	}
	if err := s.ccRepo.Delete(id); err != nil {
		return err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "delete", "change_control", cc.ChangeControlID, nil)
	}
	return nil
}

// Transition moves a change control to the target stage through the
// engine. Leaving verification requires all tasks done; leaving approval
// requires the full approval chain.
func (s *changeControlService) Transition(ctx context.Context, id uint, target string, comment string, signatureID *string, actor workflow.Actor) (*model.ChangeControl, error) {
	cc, err := s.ccRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	err = s.engine.Transition(cc, workflow.Phase(target), actor, workflow.TransitionRequest{
		Comment:     comment,
		SignatureID: signatureID,
	})
	metrics.RecordTransition("change_control", err == nil)
	if err != nil {
		return nil, err
	}

	if cc.CurrentPhase == model.CCStageClosed {
		now := time.Now()
		cc.ActualClosureDate = &now
		if err := s.ccRepo.Save(cc); err != nil {
			return nil, err
		}
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "transition", "change_control", cc.ChangeControlID, map[string]string{
			"to": target,
		})
	}
	return cc, nil
}

// AvailableTransitions lists the legal next stages for a change control.
func (s *changeControlService) AvailableTransitions(id uint) ([]workflow.TransitionOption, error) {
	cc, err := s.ccRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return s.engine.AvailableTransitions(workflow.EntityChangeControl, workflow.Phase(cc.CurrentPhase))
}

// History returns the change control's stage transition trail.
func (s *changeControlService) History(id uint) ([]*model.PhaseHistory, error) {
	return s.historyRepo.FindByRecord("change_control", id)
}

// Approvals returns the change control's approval rows.
func (s *changeControlService) Approvals(id uint) ([]*model.Approval, error) {
	return s.approvalRepo.FindForRecord("change_control", id)
}

// RespondApproval records an approver's decision for a stage.
func (s *changeControlService) RespondApproval(ctx context.Context, id uint, req *ApprovalResponseRequest, actor workflow.Actor) (*model.Approval, error) {
	if _, err := s.ccRepo.FindByID(id); err != nil {
		return nil, err
	}
	approval, err := s.approvalRepo.Respond(
		"change_control", id, req.Phase, actor.ID, req.Status, req.Comments, req.SignatureID, time.Now())
	if err != nil {
		return nil, err
	}
	metrics.RecordApproval("change_control", req.Status)
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, req.Status, "change_control_approval", req.Phase, nil)
	}
	return approval, nil
}

// AddTask appends an implementation task to a change control.
func (s *changeControlService) AddTask(ctx context.Context, task *model.ChangeControlTask, actor workflow.Actor) (*model.ChangeControlTask, error) {
	if _, err := s.ccRepo.FindByID(task.ChangeControlID); err != nil {
		return nil, err
	}
	task.CreatedBy = actor.ID
	task.UpdatedBy = actor.ID
	if task.Status == "" {
		task.Status = model.CCTaskPending
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.ccRepo.SaveTask(task); err != nil {
		return nil, err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "add_task", "change_control", task.Title, nil)
	}
	return task, nil
}

// UpdateTask persists task edits, stamping the completion date when a
// task reaches completed.
func (s *changeControlService) UpdateTask(ctx context.Context, task *model.ChangeControlTask, actor workflow.Actor) (*model.ChangeControlTask, error) {
	existing, err := s.ccRepo.FindTaskByID(task.ID)
	if err != nil {
		return nil, err
	}
	task.ChangeControlID = existing.ChangeControlID
	task.CreatedBy = existing.CreatedBy
	task.CreatedAt = existing.CreatedAt
	task.UpdatedBy = actor.ID
	if task.Status == model.CCTaskCompleted && task.CompletedDate == nil {
		now := time.Now()
		task.CompletedDate = &now
	}
	if err := s.ccRepo.SaveTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

// Tasks lists the tasks of a change control in sequence order.
func (s *changeControlService) Tasks(changeControlID uint) ([]*model.ChangeControlTask, error) {
	return s.ccRepo.FindTasks(changeControlID)
}

func (s *changeControlService) checkLinks(cc *model.ChangeControl) error {
	if err := checkReference(s.db, "capas", "capa", cc.CAPAID); err != nil {
		return err
	}
	return checkReference(s.db, "deviations", "deviation", cc.DeviationID)
}
