package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// Clock supplies the current time; injectable for tests.
type Clock func() time.Time

// ApprovalState summarizes the approval rows of one (record, phase).
type ApprovalState struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
	// Status maps each registered approver to their current status.
	// Unclaimed tier slots have no entry here but count toward Pending.
	Status map[string]string
}

// Satisfied reports whether every approval slot carries an approved
// response.
func (s ApprovalState) Satisfied() bool {
	return s.Pending == 0 && s.Rejected == 0
}

// ApprovalDirectory is the engine's window onto the approval store. The
// repository layer implements it.
type ApprovalDirectory interface {
	// PhaseState returns the approval summary for a record's phase.
	PhaseState(entity string, recordID uint, phase string) (ApprovalState, error)
	// SeedPhase creates the pending approval slots for a phase inside the
	// transition's transaction. Existing rows are left untouched.
	SeedPhase(tx *gorm.DB, entity string, recordID uint, phase string, tiers []TierSeed) error
}

// TransitionRequest carries the optional metadata of a transition.
type TransitionRequest struct {
	Comment     string
	SignatureID *string
}

// Engine validates and commits workflow transitions for every entity type.
// Validation order: edge, gate, permission, approval policy; only then is
// the phase change committed.
type Engine struct {
	db        *gorm.DB
	registry  *Registry
	gates     *GateSet
	approvals ApprovalDirectory
	now       Clock
	log       *logrus.Logger
}

// NewEngine creates a transition engine.
func NewEngine(db *gorm.DB, registry *Registry, gates *GateSet, approvals ApprovalDirectory, log *logrus.Logger) *Engine {
	return &Engine{
		db:        db,
		registry:  registry,
		gates:     gates,
		approvals: approvals,
		now:       time.Now,
		log:       log,
	}
}

// WithClock replaces the engine clock. Used by tests.
func (e *Engine) WithClock(now Clock) *Engine {
	e.now = now
	return e
}

// Registry exposes the phase graphs for read-only consumers.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// AvailableTransitions lists the declared outgoing edges for a phase.
func (e *Engine) AvailableTransitions(entity EntityType, phase Phase) ([]TransitionOption, error) {
	g, ok := e.registry.Graph(entity)
	if !ok {
		return nil, fmt.Errorf("unknown workflow entity %q", entity)
	}
	if !g.IsKnown(phase) {
		return nil, fmt.Errorf("unknown %s phase %q", entity, phase)
	}
	return g.AvailableTransitions(phase), nil
}

// Transition moves a record to the target phase on behalf of an actor.
// On success the record's phase, phase timestamp, and updated_by are
// persisted atomically, a history row is written, and any approval slots
// for the new phase are seeded.
func (e *Engine) Transition(rec Record, target Phase, actor Actor, req TransitionRequest) error {
	return e.transition(rec, target, actor, req)
}

// SystemTransition performs an automatic transition with no acting user.
// The external scheduler or signal layer decides when to call it.
func (e *Engine) SystemTransition(rec Record, target Phase, comment string) error {
	return e.transition(rec, target, Actor{ID: SystemOperator}, TransitionRequest{Comment: comment})
}

func (e *Engine) transition(rec Record, target Phase, actor Actor, req TransitionRequest) error {
	entity := EntityType(rec.WorkflowEntity())
	g, ok := e.registry.Graph(entity)
	if !ok {
		return fmt.Errorf("unknown workflow entity %q", entity)
	}
	from := Phase(rec.WorkflowPhase())

	if !g.Allows(from, target) {
		return &IllegalTransitionError{Entity: entity, From: from, To: target}
	}
	if err := e.gates.Check(entity, from, target, rec); err != nil {
		return err
	}
	if err := e.checkPermission(g, from, target, actor, rec); err != nil {
		return err
	}
	if g.Policy(from, target) == PolicyAllTiers {
		state, err := e.approvals.PhaseState(string(entity), rec.RecordID(), string(from))
		if err != nil {
			return fmt.Errorf("load approval state: %w", err)
		}
		if !state.Satisfied() {
			return &ApprovalsPendingError{
				Entity:  entity,
				Phase:   from,
				Pending: state.Pending + state.Rejected,
			}
		}
	}

	now := e.now()
	inPhase := int64(now.Sub(rec.WorkflowPhaseEnteredAt()).Seconds())
	history := &model.PhaseHistory{
		ID:                 uuid.NewString(),
		EntityType:         string(entity),
		RecordID:           rec.RecordID(),
		FromPhase:          string(from),
		ToPhase:            string(target),
		Comment:            req.Comment,
		Operator:           actor.ID,
		TimeInPhaseSeconds: &inPhase,
		SignatureID:        req.SignatureID,
		CreatedAt:          now,
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		// Conditional update serializes concurrent transitions on the
		// same record: the loser sees zero rows affected.
		res := tx.Model(rec).
			Where("id = ? AND current_phase = ?", rec.RecordID(), string(from)).
			Updates(map[string]interface{}{
				"current_phase":    string(target),
				"phase_entered_at": now,
				"updated_by":       actor.ID,
				"updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var observed string
			tx.Model(rec).Select("current_phase").
				Where("id = ?", rec.RecordID()).
				Scan(&observed)
			return &ConflictError{Entity: entity, Expected: from, Observed: Phase(observed)}
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}
		if tiers := g.Tiers[target]; len(tiers) > 0 {
			if err := e.approvals.SeedPhase(tx, string(entity), rec.RecordID(), string(target), tiers); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	rec.EnterWorkflowPhase(string(target), now)
	e.log.WithFields(logrus.Fields{
		"entity":   entity,
		"record":   rec.BusinessKey(),
		"from":     from,
		"to":       target,
		"operator": actor.ID,
	}).Info("workflow transition committed")
	return nil
}

func (e *Engine) checkPermission(g *Graph, from, target Phase, actor Actor, rec Record) error {
	perm := g.Permission(from, target)
	deny := func(reason string) error {
		return &PermissionDeniedError{
			Entity:   g.Entity,
			From:     from,
			To:       target,
			Required: perm,
			ActorID:  actor.ID,
			Reason:   reason,
		}
	}

	switch perm {
	case PermSystem:
		return nil
	case PermAuthor:
		if actor.ID != "" && actor.ID == rec.WorkflowOwner() {
			return nil
		}
		return deny("only the record author can perform this action")
	case PermAuthorOrAdmin:
		if actor.ID != "" && actor.ID == rec.WorkflowOwner() {
			return nil
		}
		if actor.IsAdmin() {
			return nil
		}
		return deny("only the record author or an administrator can perform this action")
	case PermApprover:
		state, err := e.approvals.PhaseState(rec.WorkflowEntity(), rec.RecordID(), string(from))
		if err != nil {
			return fmt.Errorf("load approval state: %w", err)
		}
		if st, registered := state.Status[actor.ID]; registered && st != model.ApprovalRejected {
			return nil
		}
		if actor.IsAdmin() {
			return nil
		}
		return deny("only a registered approver can perform this action")
	case PermReviewer:
		state, err := e.approvals.PhaseState(rec.WorkflowEntity(), rec.RecordID(), string(from))
		if err != nil {
			return fmt.Errorf("load approval state: %w", err)
		}
		if _, registered := state.Status[actor.ID]; registered {
			return nil
		}
		if actor.IsAdmin() {
			return nil
		}
		return deny("only an assigned reviewer or an administrator can perform this action")
	case PermSystemOrAdmin:
		if actor.ID == SystemOperator || actor.IsAdmin() {
			return nil
		}
		return deny("only the system or an administrator can perform this action")
	default: // PermAdmin and any undeclared edge
		if actor.IsAdmin() {
			return nil
		}
		return deny("only an administrator can perform this action")
	}
}
