package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

func newDeviationService(t *testing.T) (service.DeviationService, service.CAPAService, *serviceTestEnv) {
	env := setupServiceEnv(t)
	capaSvc := service.NewCAPAService(
		repository.NewCAPARepository(env.db),
		env.approvalRepo,
		env.historyRepo,
		env.engine,
		env.generator,
		env.db,
		nil,
	)
	devSvc := service.NewDeviationService(
		repository.NewDeviationRepository(env.db),
		env.approvalRepo,
		env.historyRepo,
		capaSvc,
		env.engine,
		env.generator,
		env.db,
		nil,
	)
	return devSvc, capaSvc, env
}

// TestDeviationService_Create verifies ID assignment and initial stage.
func TestDeviationService_Create(t *testing.T) {
	svc, _, _ := newDeviationService(t)

	dev, err := svc.Create(context.Background(), &model.Deviation{
		Title:         "temperature excursion in cold room",
		DeviationType: "unplanned",
		Severity:      "major",
	}, workflow.NewActor("bob"))
	require.NoError(t, err)

	assert.Regexp(t, `^DEV-\d{4}-0001$`, dev.DeviationID)
	assert.Equal(t, model.DevStageOpened, dev.CurrentPhase)
	assert.Equal(t, "bob", dev.CreatedBy)
}

// TestDeviationService_SpawnCAPA verifies the spawned CAPA is linked in
// both directions and seeded from the deviation.
func TestDeviationService_SpawnCAPA(t *testing.T) {
	svc, _, env := newDeviationService(t)
	ctx := context.Background()

	dev, err := svc.Create(ctx, &model.Deviation{
		Title:    "sterility test failure",
		Severity: "critical",
	}, workflow.NewActor("bob"))
	require.NoError(t, err)

	capa, err := svc.SpawnCAPA(ctx, dev.ID, &model.CAPA{}, workflow.NewActor("bob"))
	require.NoError(t, err)

	assert.Equal(t, "sterility test failure", capa.Title)
	assert.Equal(t, "deviation", capa.Source)
	assert.Equal(t, dev.DeviationID, capa.SourceReference)
	require.NotNil(t, capa.DeviationID)
	assert.Equal(t, dev.ID, *capa.DeviationID)

	var reloaded model.Deviation
	require.NoError(t, env.db.First(&reloaded, dev.ID).Error)
	require.NotNil(t, reloaded.CAPAID)
	assert.Equal(t, capa.ID, *reloaded.CAPAID)
	assert.True(t, reloaded.RequiresCAPA)
}

// TestDeviationService_CAPAPlanGate verifies a deviation requiring a
// CAPA cannot submit its plan without the link.
func TestDeviationService_CAPAPlanGate(t *testing.T) {
	svc, _, env := newDeviationService(t)
	ctx := context.Background()

	dev, err := svc.Create(ctx, &model.Deviation{Title: "needs capa"}, workflow.NewActor("bob"))
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&model.Deviation{}).Where("id = ?", dev.ID).
		Updates(map[string]interface{}{
			"current_phase": model.DevStageCAPAPlan,
			"requires_capa": true,
		}).Error)

	_, err = svc.Transition(ctx, dev.ID, model.DevStagePendingCAPAApproval, "", nil, workflow.NewActor("bob"))

	var gateErr *workflow.GateNotSatisfiedError
	require.ErrorAs(t, err, &gateErr)
	assert.Contains(t, gateErr.Missing, "capa_id")

	// Spawning the CAPA satisfies the gate.
	_, err = svc.SpawnCAPA(ctx, dev.ID, &model.CAPA{}, workflow.NewActor("bob"))
	require.NoError(t, err)

	dev, err = svc.Transition(ctx, dev.ID, model.DevStagePendingCAPAApproval, "", nil, workflow.NewActor("bob"))
	require.NoError(t, err)
	assert.Equal(t, model.DevStagePendingCAPAApproval, dev.CurrentPhase)
}
