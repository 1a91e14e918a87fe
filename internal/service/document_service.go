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

// DocumentService is the application service for controlled documents.
type DocumentService interface {
	Create(ctx context.Context, doc *model.Document, actor workflow.Actor) (*model.Document, error)
	Get(id uint) (*model.Document, error)
	GetByBusinessID(documentID string) (*model.Document, error)
	List(filter *repository.DocumentFilter) ([]*model.Document, error)
	Update(ctx context.Context, doc *model.Document, actor workflow.Actor) (*model.Document, error)
	Delete(ctx context.Context, id uint, actor workflow.Actor) error

	// SubmitForReview registers the approval chain and moves the draft
	// into review.
	SubmitForReview(ctx context.Context, id uint, approvers []string, actor workflow.Actor) (*model.Document, error)
	// RespondReview records one approver's decision. When the last
	// pending approver approves, the document advances to approved.
	RespondReview(ctx context.Context, id uint, req *ApprovalResponseRequest, actor workflow.Actor) (*model.Document, error)
	Transition(ctx context.Context, id uint, target string, comment string, signatureID *string, actor workflow.Actor) (*model.Document, error)
	// MakeEffective is the automatic advance after approval or training
	// completion. The external scheduler decides when to call it.
	MakeEffective(ctx context.Context, id uint) (*model.Document, error)
	AvailableTransitions(id uint) ([]workflow.TransitionOption, error)
	History(id uint) ([]*model.PhaseHistory, error)
	Approvals(id uint) ([]*model.Approval, error)
}

type documentService struct {
	docRepo      repository.DocumentRepository
	approvalRepo repository.ApprovalRepository
	historyRepo  repository.HistoryRepository
	engine       *workflow.Engine
	generator    *sequence.Generator
	db           *gorm.DB
	auditLogSvc  AuditLogService
}

// NewDocumentService creates a document service.
func NewDocumentService(
	docRepo repository.DocumentRepository,
	approvalRepo repository.ApprovalRepository,
	historyRepo repository.HistoryRepository,
	engine *workflow.Engine,
	generator *sequence.Generator,
	db *gorm.DB,
	auditLogSvc AuditLogService,
) DocumentService {
	return &documentService{
		docRepo:      docRepo,
		approvalRepo: approvalRepo,
		historyRepo:  historyRepo,
		engine:       engine,
		generator:    generator,
		db:           db,
		auditLogSvc:  auditLogSvc,
	}
}

// Create assigns a business ID and persists a new draft document.
func (s *documentService) Create(ctx context.Context, doc *model.Document, actor workflow.Actor) (*model.Document, error) {
	now := time.Now()
	doc.CurrentPhase = model.DocStateDraft
	doc.PhaseEnteredAt = now
	doc.CreatedBy = actor.ID
	doc.UpdatedBy = actor.ID
	if doc.Owner == "" {
		doc.Owner = actor.ID
	}
	if doc.MajorVersion == 0 {
		doc.MajorVersion = 1
	}

	err := s.generator.CreateWithID(s.db, doc, "documents", "document_id", sequence.PrefixDocument, func(id string) {
		doc.DocumentID = id
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCreated("document")
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "create", "document", doc.DocumentID, map[string]string{
			"title": doc.Title,
		})
	}
	return doc, nil
}

// Get looks up a document by primary key.
func (s *documentService) Get(id uint) (*model.Document, error) {
	return s.docRepo.FindByID(id)
}

// GetByBusinessID looks up a document by its business identifier.
func (s *documentService) GetByBusinessID(documentID string) (*model.Document, error) {
	return s.docRepo.FindByBusinessID(documentID)
}

// List returns documents matching a filter.
func (s *documentService) List(filter *repository.DocumentFilter) ([]*model.Document, error) {
	return s.docRepo.FindByFilter(filter)
}

// Update persists content edits. Only draft and in-review documents may
// be edited.
func (s *documentService) Update(ctx context.Context, doc *model.Document, actor workflow.Actor) (*model.Document, error) {
	existing, err := s.docRepo.FindByID(doc.ID)
	if err != nil {
		return nil, err
	}
	if !existing.CanBeEdited() {
		return nil, &workflow.PermissionDeniedError{
			Entity:  workflow.EntityDocument,
			From:    workflow.Phase(existing.CurrentPhase),
			ActorID: actor.ID,
			Reason:  "document content is locked outside draft and review",
		}
	}
	doc.DocumentID = existing.DocumentID
	doc.CurrentPhase = existing.CurrentPhase
	doc.PhaseEnteredAt = existing.PhaseEnteredAt
	doc.CreatedBy = existing.CreatedBy
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedBy = actor.ID

	if err := s.docRepo.Save(doc); err != nil {
		return nil, err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "update", "document", doc.DocumentID, nil)
	}
	return doc, nil
}

// Delete removes a document and clears references pointing at it.
func (s *documentService) Delete(ctx context.Context, id uint, actor workflow.Actor) error {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return err
	}
	if err := s.docRepo.Delete(id); err != nil {
		return err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "delete", "document", doc.DocumentID, nil)
	}
	return nil
}

// SubmitForReview registers one approval slot per named approver for the
// in_review state and then moves the draft into review.
func (s *documentService) SubmitForReview(ctx context.Context, id uint, approvers []string, actor workflow.Actor) (*model.Document, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	for i, approver := range approvers {
		err := s.approvalRepo.Register(&model.Approval{
			EntityType: "document",
			RecordID:   doc.ID,
			Phase:      model.DocStateInReview,
			Tier:       model.TierApprover,
			Sequence:   i + 1,
			Approver:   approver,
			Status:     model.ApprovalPending,
			CreatedBy:  actor.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	err = s.engine.Transition(doc, workflow.Phase(model.DocStateInReview), actor, workflow.TransitionRequest{
		Comment: "submitted for review",
	})
	metrics.RecordTransition("document", err == nil)
	if err != nil {
		return nil, err
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "submit_review", "document", doc.DocumentID, map[string]interface{}{
			"approvers": approvers,
		})
	}
	return doc, nil
}

// RespondReview records an approver's decision on the review chain. A
// repeated response from the same approver overwrites the first. When
// every registered approver has approved, the document advances to
// approved; a rejection returns it to draft.
func (s *documentService) RespondReview(ctx context.Context, id uint, req *ApprovalResponseRequest, actor workflow.Actor) (*model.Document, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	phase := req.Phase
	if phase == "" {
		phase = doc.CurrentPhase
	}
	_, err = s.approvalRepo.Respond(
		"document", doc.ID, phase, actor.ID, req.Status, req.Comments, req.SignatureID, time.Now())
	if err != nil {
		return nil, err
	}
	metrics.RecordApproval("document", req.Status)
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, req.Status, "document_approval", doc.DocumentID, nil)
	}

	if doc.CurrentPhase != model.DocStateInReview {
		return doc, nil
	}

	switch req.Status {
	case model.ApprovalRejected:
		err = s.engine.Transition(doc, workflow.Phase(model.DocStateDraft), actor, workflow.TransitionRequest{
			Comment: "rejected in review",
		})
		metrics.RecordTransition("document", err == nil)
		if err != nil {
			return nil, err
		}
	case model.ApprovalApproved:
		state, err := s.approvalRepo.PhaseState("document", doc.ID, model.DocStateInReview)
		if err != nil {
			return nil, err
		}
		if state.Satisfied() {
			err = s.engine.Transition(doc, workflow.Phase(model.DocStateApproved), actor, workflow.TransitionRequest{
				Comment:     "all approvals received",
				SignatureID: req.SignatureID,
			})
			metrics.RecordTransition("document", err == nil)
			if err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

// Transition moves a document to the target state through the engine.
func (s *documentService) Transition(ctx context.Context, id uint, target string, comment string, signatureID *string, actor workflow.Actor) (*model.Document, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	err = s.engine.Transition(doc, workflow.Phase(target), actor, workflow.TransitionRequest{
		Comment:     comment,
		SignatureID: signatureID,
	})
	metrics.RecordTransition("document", err == nil)
	if err != nil {
		return nil, err
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "transition", "document", doc.DocumentID, map[string]string{
			"to": target,
		})
	}
	return doc, nil
}

// MakeEffective advances an approved or in-training document to
// effective. Documents requiring training pass through the training
// period first.
func (s *documentService) MakeEffective(ctx context.Context, id uint) (*model.Document, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	target := model.DocStateEffective
	if doc.CurrentPhase == model.DocStateApproved && doc.TrainingRequired {
		target = model.DocStateTrainingPeriod
	}

	err = s.engine.SystemTransition(doc, workflow.Phase(target), "automatic advance")
	metrics.RecordTransition("document", err == nil)
	if err != nil {
		return nil, err
	}

	if target == model.DocStateEffective {
		now := time.Now()
		doc.EffectiveDate = &now
		if err := s.docRepo.Save(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// AvailableTransitions lists the legal next states for a document.
func (s *documentService) AvailableTransitions(id uint) ([]workflow.TransitionOption, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return s.engine.AvailableTransitions(workflow.EntityDocument, workflow.Phase(doc.CurrentPhase))
}

// History returns the document's state transition trail.
func (s *documentService) History(id uint) ([]*model.PhaseHistory, error) {
	return s.historyRepo.FindByRecord("document", id)
}

// Approvals returns the document's approval rows.
func (s *documentService) Approvals(id uint) ([]*model.Approval, error) {
	return s.approvalRepo.FindForRecord("document", id)
}
