package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

func newCAPAService(t *testing.T) (service.CAPAService, *serviceTestEnv) {
	env := setupServiceEnv(t)
	svc := service.NewCAPAService(
		repository.NewCAPARepository(env.db),
		env.approvalRepo,
		env.historyRepo,
		env.engine,
		env.generator,
		env.db,
		nil,
	)
	return svc, env
}

// TestCAPAService_Create verifies ID assignment, initial phase, and the
// derived risk priority number.
func TestCAPAService_Create(t *testing.T) {
	svc, _ := newCAPAService(t)

	capa, err := svc.Create(context.Background(), &model.CAPA{
		Title:          "environmental monitoring excursion",
		Source:         "deviation",
		RiskSeverity:   4,
		RiskOccurrence: 3,
		RiskDetection:  2,
	}, workflow.NewActor("alice"))
	require.NoError(t, err)

	assert.Regexp(t, `^CAPA-\d{4}-0001$`, capa.CAPAID)
	assert.Equal(t, model.CAPAPhaseInvestigation, capa.CurrentPhase)
	assert.Equal(t, 24, capa.PreActionRPN)
	assert.Equal(t, model.EffectivenessPending, capa.EffectivenessResult)
	assert.Equal(t, "alice", capa.CreatedBy)
}

// TestCAPAService_DanglingLinkRejected verifies a reference to a missing
// deviation is rejected at write time.
func TestCAPAService_DanglingLinkRejected(t *testing.T) {
	svc, _ := newCAPAService(t)

	missing := uint(999)
	_, err := svc.Create(context.Background(), &model.CAPA{
		Title:       "orphan link",
		DeviationID: &missing,
	}, workflow.NewActor("alice"))

	var danglingErr *workflow.DanglingReferenceError
	require.ErrorAs(t, err, &danglingErr)
	assert.Equal(t, "deviation", danglingErr.TargetType)
	assert.Equal(t, uint(999), danglingErr.TargetID)
}

// TestCAPAService_LinkToExistingDeviation verifies a valid link passes.
func TestCAPAService_LinkToExistingDeviation(t *testing.T) {
	svc, env := newCAPAService(t)

	dev := &model.Deviation{
		DeviationID:    "DEV-2026-0001",
		Title:          "line clearance missed",
		CurrentPhase:   model.DevStageOpened,
		PhaseEnteredAt: time.Now(),
		CreatedBy:      "bob",
	}
	require.NoError(t, env.db.Create(dev).Error)

	capa, err := svc.Create(context.Background(), &model.CAPA{
		Title:       "linked",
		DeviationID: &dev.ID,
	}, workflow.NewActor("alice"))
	require.NoError(t, err)
	require.NotNil(t, capa.DeviationID)
	assert.Equal(t, dev.ID, *capa.DeviationID)
}

// TestCAPAService_DeleteClearsReferences verifies deleting a CAPA nulls
// references on linked records instead of cascading.
func TestCAPAService_DeleteClearsReferences(t *testing.T) {
	svc, env := newCAPAService(t)
	ctx := context.Background()

	capa, err := svc.Create(ctx, &model.CAPA{Title: "to delete"}, workflow.NewActor("alice"))
	require.NoError(t, err)

	dev := &model.Deviation{
		DeviationID:    "DEV-2026-0001",
		Title:          "linked deviation",
		CurrentPhase:   model.DevStageOpened,
		PhaseEnteredAt: time.Now(),
		CreatedBy:      "bob",
		CAPAID:         &capa.ID,
	}
	require.NoError(t, env.db.Create(dev).Error)

	require.NoError(t, svc.Delete(ctx, capa.ID, workflow.NewActor("qa-admin", workflow.RoleAdmin)))

	var reloaded model.Deviation
	require.NoError(t, env.db.First(&reloaded, dev.ID).Error)
	assert.Nil(t, reloaded.CAPAID)
}

// TestCAPAService_AdvisoryApprovals verifies plan approvals are recorded
// but never block the phase exit.
func TestCAPAService_AdvisoryApprovals(t *testing.T) {
	svc, env := newCAPAService(t)
	ctx := context.Background()

	when := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	capa, err := svc.Create(ctx, &model.CAPA{
		Title:                   "plan approvals",
		WhatHappened:            "seal failure",
		WhenHappened:            &when,
		WhereHappened:           "packaging line 2",
		WhoAffected:             "batch 2026-021",
		WhyHappened:             "worn gasket",
		RootCause:               "missed preventive maintenance",
		RootCauseAnalysisMethod: "fishbone",
		PlannedActions: []model.PlannedAction{
			{Description: "shorten PM interval", ActionType: "preventive", Owner: "carol"},
		},
	}, workflow.NewActor("alice"))
	require.NoError(t, err)

	actor := workflow.NewActor("alice")
	for _, target := range []string{
		model.CAPAPhaseRootCause,
		model.CAPAPhaseRiskAffirmation,
		model.CAPAPhasePlan,
	} {
		capa, err = svc.Transition(ctx, capa.ID, target, "", nil, actor)
		require.NoError(t, err)
	}

	// Entering the plan phase seeded the three-tier chain.
	state, err := env.approvalRepo.PhaseState("capa", capa.ID, model.CAPAPhasePlan)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Total)
	assert.Equal(t, 3, state.Pending)

	// One coordinator response is recorded.
	approval, err := svc.RespondApproval(ctx, capa.ID, &service.ApprovalResponseRequest{
		Phase:  model.CAPAPhasePlan,
		Status: model.ApprovalApproved,
	}, workflow.NewActor("dave"))
	require.NoError(t, err)
	assert.Equal(t, model.TierCoordinator, approval.Tier)
	assert.Equal(t, "dave", approval.Approver)

	// The exit is not blocked by the two still-pending tiers.
	capa, err = svc.Transition(ctx, capa.ID, model.CAPAPhaseImplementation, "", nil, actor)
	require.NoError(t, err)
	assert.Equal(t, model.CAPAPhaseImplementation, capa.CurrentPhase)
}

// TestCAPAService_ClosureGate verifies closure demands a non-pending
// effectiveness result.
func TestCAPAService_ClosureGate(t *testing.T) {
	svc, env := newCAPAService(t)
	ctx := context.Background()

	capa, err := svc.Create(ctx, &model.CAPA{Title: "effectiveness pending"}, workflow.NewActor("alice"))
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&model.CAPA{}).Where("id = ?", capa.ID).
		Update("current_phase", model.CAPAPhaseEffectiveness).Error)

	admin := workflow.NewActor("qa-admin", workflow.RoleAdmin)
	_, err = svc.Transition(ctx, capa.ID, model.CAPAPhaseClosure, "", nil, admin)

	var gateErr *workflow.GateNotSatisfiedError
	require.ErrorAs(t, err, &gateErr)
	assert.Contains(t, gateErr.Missing, "effectiveness_result")

	require.NoError(t, env.db.Model(&model.CAPA{}).Where("id = ?", capa.ID).
		Update("effectiveness_result", "effective").Error)
	capa, err = svc.Transition(ctx, capa.ID, model.CAPAPhaseClosure, "verified", nil, admin)
	require.NoError(t, err)
	assert.Equal(t, model.CAPAPhaseClosure, capa.CurrentPhase)
}
