package workflow

import (
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// GateFunc checks the mandatory preconditions for leaving a phase. It
// returns nil when the record may leave, or a GateNotSatisfiedError naming
// what is missing.
type GateFunc func(rec Record, target Phase) *GateNotSatisfiedError

// GateSet holds the per (entity, phase) exit gates. Read-only after
// construction.
type GateSet struct {
	rules map[EntityType]map[Phase]GateFunc
}

// Check runs the exit gate for the record's current phase, if one is
// declared. Records without a gate pass.
func (s *GateSet) Check(entity EntityType, from, to Phase, rec Record) error {
	byPhase, ok := s.rules[entity]
	if !ok {
		return nil
	}
	gate, ok := byPhase[from]
	if !ok {
		return nil
	}
	if gerr := gate(rec, to); gerr != nil {
		gerr.Entity = entity
		gerr.Phase = from
		return gerr
	}
	return nil
}

// DefaultGates builds the gate rules for all four entity types.
func DefaultGates() *GateSet {
	return &GateSet{rules: map[EntityType]map[Phase]GateFunc{
		EntityCAPA: {
			Phase(model.CAPAPhaseInvestigation): capaInvestigationGate,
			Phase(model.CAPAPhaseRootCause):     capaRootCauseGate,
			Phase(model.CAPAPhasePlan):          capaPlanGate,
			Phase(model.CAPAPhaseEffectiveness): capaEffectivenessGate,
		},
		EntityChangeControl: {
			Phase(model.CCStageImpactAssessment): ccImpactGate,
			Phase(model.CCStageVerification):     ccVerificationGate,
		},
		EntityDeviation: {
			Phase(model.DevStageInvestigation): deviationInvestigationGate,
			Phase(model.DevStageCAPAPlan):      deviationCAPAPlanGate,
		},
		// Document exits are guarded by permissions and the approval
		// policy, not by field gates.
	}}
}

func capaInvestigationGate(rec Record, _ Phase) *GateNotSatisfiedError {
	c, ok := rec.(*model.CAPA)
	if !ok {
		return nil
	}
	var missing []string
	if c.WhatHappened == "" {
		missing = append(missing, "what_happened")
	}
	if c.WhenHappened == nil {
		missing = append(missing, "when_happened")
	}
	if c.WhereHappened == "" {
		missing = append(missing, "where_happened")
	}
	if c.WhoAffected == "" {
		missing = append(missing, "who_affected")
	}
	if c.WhyHappened == "" {
		missing = append(missing, "why_happened")
	}
	if len(missing) > 0 {
		return &GateNotSatisfiedError{Missing: missing}
	}
	return nil
}

func capaRootCauseGate(rec Record, _ Phase) *GateNotSatisfiedError {
	c, ok := rec.(*model.CAPA)
	if !ok {
		return nil
	}
	var missing []string
	if c.RootCause == "" {
		missing = append(missing, "root_cause")
	}
	if c.RootCauseAnalysisMethod == "" {
		missing = append(missing, "root_cause_analysis_method")
	}
	if len(missing) > 0 {
		return &GateNotSatisfiedError{Missing: missing}
	}
	return nil
}

func capaPlanGate(rec Record, _ Phase) *GateNotSatisfiedError {
	c, ok := rec.(*model.CAPA)
	if !ok {
		return nil
	}
	if len(c.PlannedActions) == 0 {
		return &GateNotSatisfiedError{
			Missing: []string{"planned_actions"},
			Reason:  "at least one planned action is required",
		}
	}
	return nil
}

func capaEffectivenessGate(rec Record, target Phase) *GateNotSatisfiedError {
	if target != Phase(model.CAPAPhaseClosure) {
		return nil
	}
	c, ok := rec.(*model.CAPA)
	if !ok {
		return nil
	}
	if c.EffectivenessResult == "" || c.EffectivenessResult == model.EffectivenessPending {
		return &GateNotSatisfiedError{
			Missing: []string{"effectiveness_result"},
			Reason:  "effectiveness verification is still pending",
		}
	}
	return nil
}

func ccImpactGate(rec Record, _ Phase) *GateNotSatisfiedError {
	cc, ok := rec.(*model.ChangeControl)
	if !ok {
		return nil
	}
	if cc.ImpactSummary == "" {
		return &GateNotSatisfiedError{Missing: []string{"impact_summary"}}
	}
	return nil
}

func ccVerificationGate(rec Record, _ Phase) *GateNotSatisfiedError {
	cc, ok := rec.(*model.ChangeControl)
	if !ok {
		return nil
	}
	var missing []string
	if cc.VerificationSummary == "" {
		missing = append(missing, "verification_summary")
	}
	for _, t := range cc.Tasks {
		if t.Status != model.CCTaskCompleted && t.Status != model.CCTaskCancelled {
			return &GateNotSatisfiedError{
				Missing: missing,
				Reason:  "all implementation tasks must be completed or cancelled",
			}
		}
	}
	if len(missing) > 0 {
		return &GateNotSatisfiedError{Missing: missing}
	}
	return nil
}

func deviationInvestigationGate(rec Record, _ Phase) *GateNotSatisfiedError {
	d, ok := rec.(*model.Deviation)
	if !ok {
		return nil
	}
	var missing []string
	if d.RootCause == "" {
		missing = append(missing, "root_cause")
	}
	if d.InvestigationSummary == "" {
		missing = append(missing, "investigation_summary")
	}
	if len(missing) > 0 {
		return &GateNotSatisfiedError{Missing: missing}
	}
	return nil
}

func deviationCAPAPlanGate(rec Record, _ Phase) *GateNotSatisfiedError {
	d, ok := rec.(*model.Deviation)
	if !ok {
		return nil
	}
	if d.RequiresCAPA && d.CAPAID == nil {
		return &GateNotSatisfiedError{
			Missing: []string{"capa_id"},
			Reason:  "a linked CAPA is required before the plan can be submitted",
		}
	}
	return nil
}
