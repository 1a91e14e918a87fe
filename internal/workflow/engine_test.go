package workflow_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

func setupEngine(t *testing.T) (*gorm.DB, *workflow.Engine, repository.ApprovalRepository) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.CAPA{}, &model.ChangeControl{}, &model.ChangeControlTask{},
		&model.Deviation{}, &model.Document{},
		&model.Approval{}, &model.PhaseHistory{},
	)
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	approvalRepo := repository.NewApprovalRepository(db)
	engine := workflow.NewEngine(db, workflow.NewRegistry(), workflow.DefaultGates(), approvalRepo, log)
	return db, engine, approvalRepo
}

func seedCAPA(t *testing.T, db *gorm.DB, phase string) *model.CAPA {
	when := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	capa := &model.CAPA{
		CAPAID:         "CAPA-2026-0001",
		Title:          "filter integrity failure",
		CurrentPhase:   phase,
		PhaseEnteredAt: time.Now().Add(-time.Hour),
		CreatedBy:      "alice",
		WhatHappened:   "filter failed integrity test",
		WhenHappened:   &when,
		WhereHappened:  "filling suite B",
		WhoAffected:    "batch 2026-117",
		WhyHappened:    "membrane damage during installation",
		RootCause:      "incorrect installation torque",

		RootCauseAnalysisMethod: "5 whys",
		PlannedActions: []model.PlannedAction{
			{Description: "revise installation SOP", ActionType: "corrective", Owner: "alice"},
		},
		EffectivenessResult: "effective",
	}
	require.NoError(t, db.Create(capa).Error)
	return capa
}

// TestEngine_IllegalTransition verifies undeclared edges are rejected.
func TestEngine_IllegalTransition(t *testing.T) {
	db, engine, _ := setupEngine(t)
	capa := seedCAPA(t, db, model.CAPAPhaseInvestigation)

	err := engine.Transition(capa, workflow.Phase(model.CAPAPhasePlan),
		workflow.NewActor("alice"), workflow.TransitionRequest{})

	var illegalErr *workflow.IllegalTransitionError
	require.ErrorAs(t, err, &illegalErr)
	assert.Equal(t, workflow.EntityCAPA, illegalErr.Entity)
	assert.Equal(t, model.CAPAPhaseInvestigation, capa.CurrentPhase)
}

// TestEngine_GateBlocksExit verifies missing mandatory fields block the
// phase exit and are named in the error.
func TestEngine_GateBlocksExit(t *testing.T) {
	db, engine, _ := setupEngine(t)
	capa := seedCAPA(t, db, model.CAPAPhaseInvestigation)
	capa.WhatHappened = ""
	capa.WhyHappened = ""
	require.NoError(t, db.Save(capa).Error)

	err := engine.Transition(capa, workflow.Phase(model.CAPAPhaseRootCause),
		workflow.NewActor("alice"), workflow.TransitionRequest{})

	var gateErr *workflow.GateNotSatisfiedError
	require.ErrorAs(t, err, &gateErr)
	assert.Contains(t, gateErr.Missing, "what_happened")
	assert.Contains(t, gateErr.Missing, "why_happened")
	assert.NotContains(t, gateErr.Missing, "where_happened")
	assert.Equal(t, model.CAPAPhaseInvestigation, capa.CurrentPhase)
}

// TestEngine_PlanGateRequiresAction verifies the plan exit demands at
// least one planned action.
func TestEngine_PlanGateRequiresAction(t *testing.T) {
	db, engine, _ := setupEngine(t)
	capa := seedCAPA(t, db, model.CAPAPhasePlan)
	capa.PlannedActions = nil
	require.NoError(t, db.Save(capa).Error)

	err := engine.Transition(capa, workflow.Phase(model.CAPAPhaseImplementation),
		workflow.NewActor("alice"), workflow.TransitionRequest{})

	var gateErr *workflow.GateNotSatisfiedError
	require.ErrorAs(t, err, &gateErr)
	assert.Contains(t, gateErr.Missing, "planned_actions")
}

// TestEngine_PermissionDenied verifies an unrelated actor cannot walk an
// author-gated edge while the author and an admin can.
func TestEngine_PermissionDenied(t *testing.T) {
	db, engine, _ := setupEngine(t)
	capa := seedCAPA(t, db, model.CAPAPhaseInvestigation)

	err := engine.Transition(capa, workflow.Phase(model.CAPAPhaseRootCause),
		workflow.NewActor("mallory"), workflow.TransitionRequest{})

	var permErr *workflow.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "mallory", permErr.ActorID)

	// The author passes.
	err = engine.Transition(capa, workflow.Phase(model.CAPAPhaseRootCause),
		workflow.NewActor("alice"), workflow.TransitionRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.CAPAPhaseRootCause, capa.CurrentPhase)
}

// TestEngine_AdminOverride verifies the admin role satisfies
// author-or-admin edges.
func TestEngine_AdminOverride(t *testing.T) {
	db, engine, _ := setupEngine(t)
	capa := seedCAPA(t, db, model.CAPAPhaseInvestigation)

	err := engine.Transition(capa, workflow.Phase(model.CAPAPhaseRootCause),
		workflow.NewActor("qa-admin", workflow.RoleAdmin), workflow.TransitionRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.CAPAPhaseRootCause, capa.CurrentPhase)
}

// TestEngine_ClosureRequiresAdmin verifies the closure edge is
// admin-only even for the author.
func TestEngine_ClosureRequiresAdmin(t *testing.T) {
	db, engine, _ := setupEngine(t)
	capa := seedCAPA(t, db, model.CAPAPhaseEffectiveness)

	err := engine.Transition(capa, workflow.Phase(model.CAPAPhaseClosure),
		workflow.NewActor("alice"), workflow.TransitionRequest{})
	var permErr *workflow.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)

	err = engine.Transition(capa, workflow.Phase(model.CAPAPhaseClosure),
		workflow.NewActor("qa-admin", workflow.RoleAdmin), workflow.TransitionRequest{})
	require.NoError(t, err)
}

// TestEngine_HistoryAndSeeding verifies a committed transition writes a
// history row and seeds the target phase's approval slots.
func TestEngine_HistoryAndSeeding(t *testing.T) {
	db, engine, approvalRepo := setupEngine(t)
	capa := seedCAPA(t, db, model.CAPAPhaseRiskAffirmation)

	err := engine.Transition(capa, workflow.Phase(model.CAPAPhasePlan),
		workflow.NewActor("alice"), workflow.TransitionRequest{Comment: "risk affirmed"})
	require.NoError(t, err)

	var histories []model.PhaseHistory
	require.NoError(t, db.Where("entity_type = ? AND record_id = ?", "capa", capa.ID).Find(&histories).Error)
	require.Len(t, histories, 1)
	assert.Equal(t, model.CAPAPhaseRiskAffirmation, histories[0].FromPhase)
	assert.Equal(t, model.CAPAPhasePlan, histories[0].ToPhase)
	assert.Equal(t, "risk affirmed", histories[0].Comment)
	assert.Equal(t, "alice", histories[0].Operator)
	require.NotNil(t, histories[0].TimeInPhaseSeconds)
	assert.Greater(t, *histories[0].TimeInPhaseSeconds, int64(0))

	// Three tier slots seeded pending with no approver claimed yet.
	state, err := approvalRepo.PhaseState("capa", capa.ID, model.CAPAPhasePlan)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Total)
	assert.Equal(t, 3, state.Pending)
	assert.Empty(t, state.Status)
}

// TestEngine_ApprovalPolicyBlocks verifies an all-tiers edge is blocked
// until every slot is approved.
func TestEngine_ApprovalPolicyBlocks(t *testing.T) {
	db, engine, approvalRepo := setupEngine(t)

	cc := &model.ChangeControl{
		ChangeControlID: "CC-2026-0001",
		Title:           "new filling line PLC",
		CurrentPhase:    model.CCStageApproval,
		PhaseEnteredAt:  time.Now().Add(-time.Hour),
		CreatedBy:       "alice",
		ImpactSummary:   "PLC software rev affects batch records",
	}
	require.NoError(t, db.Create(cc).Error)
	require.NoError(t, approvalRepo.SeedPhase(db, "change_control", cc.ID, model.CCStageApproval, []workflow.TierSeed{
		{Tier: model.TierQAManager, Sequence: 1},
		{Tier: model.TierDepartmentHead, Sequence: 2},
	}))

	admin := workflow.NewActor("qa-admin", workflow.RoleAdmin)

	err := engine.Transition(cc, workflow.Phase(model.CCStageImplementation), admin, workflow.TransitionRequest{})
	var pendingErr *workflow.ApprovalsPendingError
	require.ErrorAs(t, err, &pendingErr)
	assert.Equal(t, 2, pendingErr.Pending)

	// One approval is not enough.
	_, err = approvalRepo.Respond("change_control", cc.ID, model.CCStageApproval,
		"qa-manager-1", model.ApprovalApproved, "ok", nil, time.Now())
	require.NoError(t, err)
	err = engine.Transition(cc, workflow.Phase(model.CCStageImplementation), admin, workflow.TransitionRequest{})
	require.ErrorAs(t, err, &pendingErr)
	assert.Equal(t, 1, pendingErr.Pending)

	// Both tiers approved unblocks the edge.
	_, err = approvalRepo.Respond("change_control", cc.ID, model.CCStageApproval,
		"dept-head-1", model.ApprovalApproved, "ok", nil, time.Now())
	require.NoError(t, err)
	err = engine.Transition(cc, workflow.Phase(model.CCStageImplementation), admin, workflow.TransitionRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.CCStageImplementation, cc.CurrentPhase)

	// With every slot claimed, an outsider's response is refused.
	_, err = approvalRepo.Respond("change_control", cc.ID, model.CCStageApproval,
		"mallory", model.ApprovalRejected, "", nil, time.Now())
	var unknownErr *workflow.UnknownApproverError
	require.ErrorAs(t, err, &unknownErr)

	state, err := approvalRepo.PhaseState("change_control", cc.ID, model.CCStageApproval)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Rejected)
	assert.NotContains(t, state.Status, "mallory")
}

// TestEngine_ConcurrentTransitionConflict verifies the loser of a
// concurrent transition gets a conflict, not a double move.
func TestEngine_ConcurrentTransitionConflict(t *testing.T) {
	db, engine, _ := setupEngine(t)
	capa := seedCAPA(t, db, model.CAPAPhaseInvestigation)

	// Another writer moved the record after we loaded it.
	require.NoError(t, db.Model(&model.CAPA{}).Where("id = ?", capa.ID).
		Update("current_phase", model.CAPAPhaseRootCause).Error)

	err := engine.Transition(capa, workflow.Phase(model.CAPAPhaseRootCause),
		workflow.NewActor("alice"), workflow.TransitionRequest{})

	var conflictErr *workflow.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, workflow.Phase(model.CAPAPhaseInvestigation), conflictErr.Expected)
	assert.Equal(t, workflow.Phase(model.CAPAPhaseRootCause), conflictErr.Observed)

	// No history row was committed for the losing attempt.
	var count int64
	db.Model(&model.PhaseHistory{}).Where("record_id = ?", capa.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

// TestEngine_SystemTransition verifies automatic advances record the
// system operator.
func TestEngine_SystemTransition(t *testing.T) {
	db, engine, _ := setupEngine(t)

	doc := &model.Document{
		DocumentID:     "DOC-2026-0001",
		Title:          "cleaning validation SOP",
		CurrentPhase:   model.DocStateApproved,
		PhaseEnteredAt: time.Now().Add(-time.Minute),
		Owner:          "alice",
		CreatedBy:      "alice",
	}
	require.NoError(t, db.Create(doc).Error)

	err := engine.SystemTransition(doc, workflow.Phase(model.DocStateEffective), "automatic advance")
	require.NoError(t, err)
	assert.Equal(t, model.DocStateEffective, doc.CurrentPhase)

	var history model.PhaseHistory
	require.NoError(t, db.Where("entity_type = ? AND record_id = ?", "document", doc.ID).First(&history).Error)
	assert.Equal(t, workflow.SystemOperator, history.Operator)
}

// TestEngine_AvailableTransitions verifies unknown entities and phases
// are rejected.
func TestEngine_AvailableTransitions(t *testing.T) {
	_, engine, _ := setupEngine(t)

	opts, err := engine.AvailableTransitions(workflow.EntityCAPA, workflow.Phase(model.CAPAPhaseInvestigation))
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, workflow.Phase(model.CAPAPhaseRootCause), opts[0].Target)

	_, err = engine.AvailableTransitions("widget", "draft")
	assert.Error(t, err)

	_, err = engine.AvailableTransitions(workflow.EntityCAPA, "nonexistent")
	assert.Error(t, err)
}
