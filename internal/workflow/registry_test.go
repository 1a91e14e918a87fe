package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

// TestRegistry_Entities verifies all four entity types are configured.
func TestRegistry_Entities(t *testing.T) {
	reg := workflow.NewRegistry()

	entities := reg.Entities()
	assert.Len(t, entities, 4)
	for _, e := range []workflow.EntityType{
		workflow.EntityCAPA,
		workflow.EntityChangeControl,
		workflow.EntityDeviation,
		workflow.EntityDocument,
	} {
		_, ok := reg.Graph(e)
		assert.True(t, ok, "missing graph for %s", e)
	}
}

// TestCAPAGraph_LinearChain verifies the CAPA lifecycle is a strict
// seven-phase chain with no skips.
func TestCAPAGraph_LinearChain(t *testing.T) {
	reg := workflow.NewRegistry()
	g, ok := reg.Graph(workflow.EntityCAPA)
	require.True(t, ok)

	chain := []workflow.Phase{
		workflow.Phase(model.CAPAPhaseInvestigation),
		workflow.Phase(model.CAPAPhaseRootCause),
		workflow.Phase(model.CAPAPhaseRiskAffirmation),
		workflow.Phase(model.CAPAPhasePlan),
		workflow.Phase(model.CAPAPhaseImplementation),
		workflow.Phase(model.CAPAPhaseEffectiveness),
		workflow.Phase(model.CAPAPhaseClosure),
	}

	assert.Equal(t, chain[0], g.Initial)
	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, g.Allows(chain[i], chain[i+1]), "%s -> %s should be allowed", chain[i], chain[i+1])
	}

	// No skipping ahead and no moving backward.
	assert.False(t, g.Allows(chain[0], chain[2]))
	assert.False(t, g.Allows(chain[3], chain[2]))
	assert.True(t, g.IsTerminal(chain[len(chain)-1]))
}

// TestDocumentGraph_Branching verifies the branching edges of the
// document lifecycle.
func TestDocumentGraph_Branching(t *testing.T) {
	reg := workflow.NewRegistry()
	g, ok := reg.Graph(workflow.EntityDocument)
	require.True(t, ok)

	draft := workflow.Phase(model.DocStateDraft)
	inReview := workflow.Phase(model.DocStateInReview)
	approved := workflow.Phase(model.DocStateApproved)
	effective := workflow.Phase(model.DocStateEffective)
	cancelled := workflow.Phase(model.DocStateCancelled)
	archived := workflow.Phase(model.DocStateArchived)

	assert.Equal(t, draft, g.Initial)

	// Review can approve, reject back to draft, or cancel.
	assert.True(t, g.Allows(inReview, approved))
	assert.True(t, g.Allows(inReview, draft))
	assert.True(t, g.Allows(inReview, cancelled))

	// Approved may skip training and go straight to effective.
	assert.True(t, g.Allows(approved, workflow.Phase(model.DocStateTrainingPeriod)))
	assert.True(t, g.Allows(approved, effective))

	// Effective documents can enter revision, ending the linear flow.
	assert.True(t, g.Allows(effective, inReview))

	assert.True(t, g.IsTerminal(archived))
	assert.True(t, g.IsTerminal(cancelled))

	// A draft can never jump directly to effective.
	assert.False(t, g.Allows(draft, effective))
}

// TestGraph_Permissions verifies edge permission tags and the admin
// default for undeclared tags.
func TestGraph_Permissions(t *testing.T) {
	reg := workflow.NewRegistry()
	g, ok := reg.Graph(workflow.EntityDocument)
	require.True(t, ok)

	assert.Equal(t, workflow.PermAuthor,
		g.Permission(workflow.Phase(model.DocStateDraft), workflow.Phase(model.DocStateInReview)))
	assert.Equal(t, workflow.PermApprover,
		g.Permission(workflow.Phase(model.DocStateInReview), workflow.Phase(model.DocStateApproved)))
	assert.Equal(t, workflow.PermSystem,
		g.Permission(workflow.Phase(model.DocStateApproved), workflow.Phase(model.DocStateTrainingPeriod)))

	// Undeclared edges fall back to admin.
	assert.Equal(t, workflow.PermAdmin,
		g.Permission(workflow.Phase(model.DocStateArchived), workflow.Phase(model.DocStateDraft)))
}

// TestGraph_Policies verifies which edges are blocked by open approvals.
func TestGraph_Policies(t *testing.T) {
	reg := workflow.NewRegistry()

	cc, ok := reg.Graph(workflow.EntityChangeControl)
	require.True(t, ok)
	assert.Equal(t, workflow.PolicyAllTiers,
		cc.Policy(workflow.Phase(model.CCStageApproval), workflow.Phase(model.CCStageImplementation)))

	// CAPA approvals are advisory on every edge.
	capa, ok := reg.Graph(workflow.EntityCAPA)
	require.True(t, ok)
	assert.Equal(t, workflow.PolicyAdvisory,
		capa.Policy(workflow.Phase(model.CAPAPhasePlan), workflow.Phase(model.CAPAPhaseImplementation)))
}

// TestGraph_AvailableTransitions verifies option listing with labels.
func TestGraph_AvailableTransitions(t *testing.T) {
	reg := workflow.NewRegistry()
	g, ok := reg.Graph(workflow.EntityDocument)
	require.True(t, ok)

	opts := g.AvailableTransitions(workflow.Phase(model.DocStateInReview))
	require.Len(t, opts, 3)
	assert.Equal(t, workflow.Phase(model.DocStateApproved), opts[0].Target)
	assert.Equal(t, "Approve", opts[0].Label)
	assert.Equal(t, workflow.PermApprover, opts[0].Permission)

	assert.Empty(t, g.AvailableTransitions(workflow.Phase(model.DocStateArchived)))
}

// TestGraph_IsKnown verifies phase membership checks.
func TestGraph_IsKnown(t *testing.T) {
	reg := workflow.NewRegistry()
	g, ok := reg.Graph(workflow.EntityCAPA)
	require.True(t, ok)

	assert.True(t, g.IsKnown(workflow.Phase(model.CAPAPhaseInvestigation)))
	assert.True(t, g.IsKnown(workflow.Phase(model.CAPAPhaseClosure)))
	assert.False(t, g.IsKnown(workflow.Phase("nonexistent")))
}

// TestTierSeeds verifies the configured approval chains.
func TestTierSeeds(t *testing.T) {
	reg := workflow.NewRegistry()

	capa, _ := reg.Graph(workflow.EntityCAPA)
	seeds := capa.Tiers[workflow.Phase(model.CAPAPhasePlan)]
	require.Len(t, seeds, 3)
	assert.Equal(t, model.TierCoordinator, seeds[0].Tier)
	assert.Equal(t, model.TierManager, seeds[1].Tier)
	assert.Equal(t, model.TierQAHead, seeds[2].Tier)

	cc, _ := reg.Graph(workflow.EntityChangeControl)
	seeds = cc.Tiers[workflow.Phase(model.CCStageApproval)]
	require.Len(t, seeds, 2)
	assert.Equal(t, 1, seeds[0].Sequence)
	assert.Equal(t, 2, seeds[1].Sequence)
}
