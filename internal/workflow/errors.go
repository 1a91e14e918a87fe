package workflow

import (
	"fmt"
	"strings"
)

// IllegalTransitionError reports a requested edge that the phase graph does
// not declare. Never retried automatically.
type IllegalTransitionError struct {
	Entity EntityType
	From   Phase
	To     Phase
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition for %s: %q -> %q", e.Entity, e.From, e.To)
}

// GateNotSatisfiedError reports unmet mandatory preconditions for leaving
// the current phase. Recoverable by completing the named fields.
type GateNotSatisfiedError struct {
	Entity  EntityType
	Phase   Phase
	Missing []string
	Reason  string
}

func (e *GateNotSatisfiedError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("cannot leave %s phase %q: missing required fields: %s",
			e.Entity, e.Phase, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("cannot leave %s phase %q: %s", e.Entity, e.Phase, e.Reason)
}

// PermissionDeniedError reports an actor lacking the role or relationship
// required for an edge.
type PermissionDeniedError struct {
	Entity   EntityType
	From     Phase
	To       Phase
	Required PermissionTag
	ActorID  string
	Reason   string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("actor %q may not transition %s from %q to %q (requires %s): %s",
		e.ActorID, e.Entity, e.From, e.To, e.Required, e.Reason)
}

// UnknownApproverError reports an approval response from an actor who holds
// no slot on the phase's chain: no prior response to overwrite and no
// unclaimed tier slot to take.
type UnknownApproverError struct {
	Entity  string
	Phase   string
	ActorID string
}

func (e *UnknownApproverError) Error() string {
	return fmt.Sprintf("actor %q is not a registered approver for %s phase %q",
		e.ActorID, e.Entity, e.Phase)
}

// ApprovalsPendingError reports an exit blocked by an unsatisfied approval
// chain on the current phase.
type ApprovalsPendingError struct {
	Entity  EntityType
	Phase   Phase
	Pending int
}

func (e *ApprovalsPendingError) Error() string {
	return fmt.Sprintf("approvals not complete for %s phase %q: %d pending", e.Entity, e.Phase, e.Pending)
}

// ConflictError reports a transition lost to a concurrent one: the record's
// phase changed between read and commit. The caller re-reads and re-decides.
type ConflictError struct {
	Entity   EntityType
	Expected Phase
	Observed Phase
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent transition on %s record: expected phase %q, found %q",
		e.Entity, e.Expected, e.Observed)
}

// DanglingReferenceError reports a cross-entity link pointing at a record
// that does not exist. Rejected at write time.
type DanglingReferenceError struct {
	TargetType string
	TargetID   uint
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("referenced %s %d does not exist", e.TargetType, e.TargetID)
}
