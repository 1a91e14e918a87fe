package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

// ApprovalRepository stores approval chains and electronic signatures. It
// also implements workflow.ApprovalDirectory so the transition engine can
// query and seed chains.
type ApprovalRepository interface {
	workflow.ApprovalDirectory

	FindForPhase(entity string, recordID uint, phase string) ([]*model.Approval, error)
	FindForRecord(entity string, recordID uint) ([]*model.Approval, error)
	Register(approval *model.Approval) error
	Respond(entity string, recordID uint, phase, approver, status, comments string, signatureID *string, at time.Time) (*model.Approval, error)

	SaveSignature(sig *model.ElectronicSignature) error
	FindSignature(id string) (*model.ElectronicSignature, error)
}

type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates an approval repository.
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

// FindForPhase lists the approval chain of one phase in tier order.
func (r *approvalRepository) FindForPhase(entity string, recordID uint, phase string) ([]*model.Approval, error) {
	var approvals []*model.Approval
	err := r.db.Where("entity_type = ? AND record_id = ? AND phase = ?", entity, recordID, phase).
		Order("sequence ASC, id ASC").
		Find(&approvals).Error
	return approvals, err
}

// FindForRecord lists every approval of a record across all phases.
func (r *approvalRepository) FindForRecord(entity string, recordID uint) ([]*model.Approval, error) {
	var approvals []*model.Approval
	err := r.db.Where("entity_type = ? AND record_id = ?", entity, recordID).
		Order("phase ASC, sequence ASC, id ASC").
		Find(&approvals).Error
	return approvals, err
}

// Register adds an approval slot for a named approver, typically when a
// document author submits for review. Existing slots are left untouched.
func (r *approvalRepository) Register(approval *model.Approval) error {
	if approval.Status == "" {
		approval.Status = model.ApprovalPending
	}
	return r.db.Where(model.Approval{
		EntityType: approval.EntityType,
		RecordID:   approval.RecordID,
		Phase:      approval.Phase,
		Tier:       approval.Tier,
		Approver:   approval.Approver,
	}).FirstOrCreate(approval).Error
}

// Respond records an approver's decision for a phase. A repeated response
// from the same approver overwrites the earlier row instead of adding a
// second one. An unclaimed tier slot, seeded without an approver, is
// claimed by the first responder for that tier. A responder with no prior
// row and no unclaimed slot is not on the chain and is rejected.
func (r *approvalRepository) Respond(entity string, recordID uint, phase, approver, status, comments string, signatureID *string, at time.Time) (*model.Approval, error) {
	var approval model.Approval
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Prior response from this approver: overwrite it.
		err := tx.Where("entity_type = ? AND record_id = ? AND phase = ? AND approver = ?",
			entity, recordID, phase, approver).
			First(&approval).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Otherwise claim the first unclaimed slot in tier order.
			err = tx.Where("entity_type = ? AND record_id = ? AND phase = ? AND approver = ''", entity, recordID, phase).
				Order("sequence ASC, id ASC").
				First(&approval).Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &workflow.UnknownApproverError{
				Entity:  entity,
				Phase:   phase,
				ActorID: approver,
			}
		} else if err != nil {
			return err
		}

		approval.Approver = approver
		approval.Status = status
		approval.Comments = comments
		approval.SignatureID = signatureID
		approval.UpdatedBy = approver
		if approval.CreatedBy == "" {
			approval.CreatedBy = approver
		}
		if status == model.ApprovalPending {
			approval.RespondedAt = nil
		} else {
			responded := at
			approval.RespondedAt = &responded
		}
		return tx.Save(&approval).Error
	})
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

// PhaseState implements workflow.ApprovalDirectory.
func (r *approvalRepository) PhaseState(entity string, recordID uint, phase string) (workflow.ApprovalState, error) {
	approvals, err := r.FindForPhase(entity, recordID, phase)
	if err != nil {
		return workflow.ApprovalState{}, err
	}
	state := workflow.ApprovalState{Status: make(map[string]string, len(approvals))}
	for _, a := range approvals {
		state.Total++
		switch a.Status {
		case model.ApprovalApproved:
			state.Approved++
		case model.ApprovalRejected:
			state.Rejected++
		default:
			// Pending and deferred both leave the chain open.
			state.Pending++
		}
		if a.Approver != "" {
			state.Status[a.Approver] = a.Status
		}
	}
	return state, nil
}

// SeedPhase implements workflow.ApprovalDirectory. Called inside the
// transition transaction when a record enters a phase with configured
// tiers.
func (r *approvalRepository) SeedPhase(tx *gorm.DB, entity string, recordID uint, phase string, tiers []workflow.TierSeed) error {
	for _, tier := range tiers {
		slot := model.Approval{
			EntityType: entity,
			RecordID:   recordID,
			Phase:      phase,
			Tier:       tier.Tier,
			Approver:   "",
		}
		err := tx.Where(model.Approval{
			EntityType: entity,
			RecordID:   recordID,
			Phase:      phase,
			Tier:       tier.Tier,
			Approver:   "",
		}).Attrs(model.Approval{
			Sequence: tier.Sequence,
			Status:   model.ApprovalPending,
		}).FirstOrCreate(&slot).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveSignature persists an electronic signature manifest.
func (r *approvalRepository) SaveSignature(sig *model.ElectronicSignature) error {
	return r.db.Save(sig).Error
}

// FindSignature looks up a signature by ID.
func (r *approvalRepository) FindSignature(id string) (*model.ElectronicSignature, error) {
	var sig model.ElectronicSignature
	if err := r.db.Where("id = ?", id).First(&sig).Error; err != nil {
		return nil, err
	}
	return &sig, nil
}
