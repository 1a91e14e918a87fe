package workflow

import "time"

// Record is the contract every workflow-managed model satisfies. The model
// types implement it directly so the engine can move any of them without
// knowing their concrete fields.
type Record interface {
	// RecordID returns the storage primary key.
	RecordID() uint
	// BusinessKey returns the human-facing identifier (PREFIX-YYYY-NNNN).
	BusinessKey() string
	// WorkflowEntity returns the entity type name used in the registry.
	WorkflowEntity() string
	// WorkflowPhase returns the current lifecycle phase.
	WorkflowPhase() string
	// WorkflowPhaseEnteredAt returns when the current phase was entered.
	WorkflowPhaseEnteredAt() time.Time
	// WorkflowOwner returns the actor treated as the record's author.
	WorkflowOwner() string
	// EnterWorkflowPhase moves the in-memory record to a new phase.
	EnterWorkflowPhase(phase string, at time.Time)
}
