package workflow

import (
	"fmt"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
)

// EntityType identifies a workflow-managed record kind.
type EntityType string

const (
	EntityCAPA          EntityType = "capa"
	EntityChangeControl EntityType = "change_control"
	EntityDeviation     EntityType = "deviation"
	EntityDocument      EntityType = "document"
)

// Phase is a lifecycle state of a workflow record.
type Phase string

// PermissionTag names the actor relationship required to walk an edge.
type PermissionTag string

const (
	PermAuthor        PermissionTag = "author"
	PermAuthorOrAdmin PermissionTag = "author_or_admin"
	PermApprover      PermissionTag = "approver"
	PermReviewer      PermissionTag = "reviewer"
	PermAdmin         PermissionTag = "admin"
	PermSystem        PermissionTag = "system"
	PermSystemOrAdmin PermissionTag = "system_or_admin"
)

// ApprovalPolicy controls whether an edge is blocked by open approvals.
type ApprovalPolicy int

const (
	// PolicyAdvisory records approvals for audit but never blocks the edge.
	PolicyAdvisory ApprovalPolicy = iota
	// PolicyAllTiers blocks the edge until every approval row for the
	// current phase carries an approved response.
	PolicyAllTiers
)

// Edge is a directed transition between two phases.
type Edge struct {
	From Phase
	To   Phase
}

// TierSeed declares an approval slot created when a record enters a phase.
type TierSeed struct {
	Tier     string
	Sequence int
}

// TransitionOption describes one legal outgoing edge for API consumers.
type TransitionOption struct {
	Target     Phase         `json:"target_phase"`
	Label      string        `json:"label"`
	Permission PermissionTag `json:"required_permission"`
}

// Graph is the immutable workflow configuration for one entity type.
// Built once at startup and read concurrently without locking.
type Graph struct {
	Entity      EntityType
	Initial     Phase
	Transitions map[Phase][]Phase
	Permissions map[Edge]PermissionTag
	Labels      map[Edge]string
	Policies    map[Edge]ApprovalPolicy
	Tiers       map[Phase][]TierSeed
}

// Allows reports whether the edge from -> to is declared.
func (g *Graph) Allows(from, to Phase) bool {
	for _, t := range g.Transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Permission returns the tag guarding an edge, defaulting to admin for
// declared edges with no explicit tag.
func (g *Graph) Permission(from, to Phase) PermissionTag {
	if p, ok := g.Permissions[Edge{from, to}]; ok {
		return p
	}
	return PermAdmin
}

// Policy returns the approval policy guarding an edge.
func (g *Graph) Policy(from, to Phase) ApprovalPolicy {
	return g.Policies[Edge{from, to}]
}

// IsTerminal reports whether a phase has no outgoing edges.
func (g *Graph) IsTerminal(p Phase) bool {
	return len(g.Transitions[p]) == 0
}

// IsKnown reports whether a phase belongs to this graph.
func (g *Graph) IsKnown(p Phase) bool {
	if p == g.Initial {
		return true
	}
	if _, ok := g.Transitions[p]; ok {
		return true
	}
	for _, targets := range g.Transitions {
		for _, t := range targets {
			if t == p {
				return true
			}
		}
	}
	return false
}

// AvailableTransitions lists the outgoing edges from a phase in declaration
// order, with labels and permission tags.
func (g *Graph) AvailableTransitions(from Phase) []TransitionOption {
	targets := g.Transitions[from]
	opts := make([]TransitionOption, 0, len(targets))
	for _, t := range targets {
		e := Edge{from, t}
		label := g.Labels[e]
		if label == "" {
			label = fmt.Sprintf("Move to %s", t)
		}
		opts = append(opts, TransitionOption{
			Target:     t,
			Label:      label,
			Permission: g.Permission(from, t),
		})
	}
	return opts
}

// Registry holds the phase graphs for every workflow entity.
type Registry struct {
	graphs map[EntityType]*Graph
}

// Graph returns the configuration for an entity type.
func (r *Registry) Graph(entity EntityType) (*Graph, bool) {
	g, ok := r.graphs[entity]
	return g, ok
}

// Entities lists the configured entity types.
func (r *Registry) Entities() []EntityType {
	out := make([]EntityType, 0, len(r.graphs))
	for e := range r.graphs {
		out = append(out, e)
	}
	return out
}

// NewRegistry builds the workflow configuration for all four entity types.
func NewRegistry() *Registry {
	return &Registry{graphs: map[EntityType]*Graph{
		EntityCAPA:          capaGraph(),
		EntityChangeControl: changeControlGraph(),
		EntityDeviation:     deviationGraph(),
		EntityDocument:      documentGraph(),
	}}
}

func capaGraph() *Graph {
	return &Graph{
		Entity:  EntityCAPA,
		Initial: Phase(model.CAPAPhaseInvestigation),
		Transitions: map[Phase][]Phase{
			Phase(model.CAPAPhaseInvestigation):   {Phase(model.CAPAPhaseRootCause)},
			Phase(model.CAPAPhaseRootCause):       {Phase(model.CAPAPhaseRiskAffirmation)},
			Phase(model.CAPAPhaseRiskAffirmation): {Phase(model.CAPAPhasePlan)},
			Phase(model.CAPAPhasePlan):            {Phase(model.CAPAPhaseImplementation)},
			Phase(model.CAPAPhaseImplementation):  {Phase(model.CAPAPhaseEffectiveness)},
			Phase(model.CAPAPhaseEffectiveness):   {Phase(model.CAPAPhaseClosure)},
			Phase(model.CAPAPhaseClosure):         {},
		},
		Permissions: map[Edge]PermissionTag{
			{Phase(model.CAPAPhaseInvestigation), Phase(model.CAPAPhaseRootCause)}:     PermAuthorOrAdmin,
			{Phase(model.CAPAPhaseRootCause), Phase(model.CAPAPhaseRiskAffirmation)}:   PermAuthorOrAdmin,
			{Phase(model.CAPAPhaseRiskAffirmation), Phase(model.CAPAPhasePlan)}:        PermAuthorOrAdmin,
			{Phase(model.CAPAPhasePlan), Phase(model.CAPAPhaseImplementation)}:         PermAuthorOrAdmin,
			{Phase(model.CAPAPhaseImplementation), Phase(model.CAPAPhaseEffectiveness)}: PermAuthorOrAdmin,
			{Phase(model.CAPAPhaseEffectiveness), Phase(model.CAPAPhaseClosure)}:       PermAdmin,
		},
		Labels: map[Edge]string{
			{Phase(model.CAPAPhaseInvestigation), Phase(model.CAPAPhaseRootCause)}:     "Complete Investigation",
			{Phase(model.CAPAPhaseRootCause), Phase(model.CAPAPhaseRiskAffirmation)}:   "Confirm Root Cause",
			{Phase(model.CAPAPhaseRiskAffirmation), Phase(model.CAPAPhasePlan)}:        "Affirm Risk",
			{Phase(model.CAPAPhasePlan), Phase(model.CAPAPhaseImplementation)}:         "Approve Plan",
			{Phase(model.CAPAPhaseImplementation), Phase(model.CAPAPhaseEffectiveness)}: "Begin Effectiveness Check",
			{Phase(model.CAPAPhaseEffectiveness), Phase(model.CAPAPhaseClosure)}:       "Close CAPA",
		},
		// CAPA approvals are advisory: they are recorded and queryable
		// but never block a phase exit.
		Policies: map[Edge]ApprovalPolicy{},
		Tiers: map[Phase][]TierSeed{
			Phase(model.CAPAPhasePlan): {
				{Tier: model.TierCoordinator, Sequence: 1},
				{Tier: model.TierManager, Sequence: 2},
				{Tier: model.TierQAHead, Sequence: 3},
			},
		},
	}
}

func changeControlGraph() *Graph {
	return &Graph{
		Entity:  EntityChangeControl,
		Initial: Phase(model.CCStageSubmitted),
		Transitions: map[Phase][]Phase{
			Phase(model.CCStageSubmitted):        {Phase(model.CCStageScreening)},
			Phase(model.CCStageScreening):        {Phase(model.CCStageImpactAssessment)},
			Phase(model.CCStageImpactAssessment): {Phase(model.CCStageApproval)},
			Phase(model.CCStageApproval):         {Phase(model.CCStageImplementation)},
			Phase(model.CCStageImplementation):   {Phase(model.CCStageVerification)},
			Phase(model.CCStageVerification):     {Phase(model.CCStageClosed)},
			Phase(model.CCStageClosed):           {},
		},
		Permissions: map[Edge]PermissionTag{
			{Phase(model.CCStageSubmitted), Phase(model.CCStageScreening)}:        PermAuthorOrAdmin,
			{Phase(model.CCStageScreening), Phase(model.CCStageImpactAssessment)}: PermAuthorOrAdmin,
			{Phase(model.CCStageImpactAssessment), Phase(model.CCStageApproval)}:  PermAuthorOrAdmin,
			{Phase(model.CCStageApproval), Phase(model.CCStageImplementation)}:    PermApprover,
			{Phase(model.CCStageImplementation), Phase(model.CCStageVerification)}: PermAuthorOrAdmin,
			{Phase(model.CCStageVerification), Phase(model.CCStageClosed)}:        PermAdmin,
		},
		Labels: map[Edge]string{
			{Phase(model.CCStageSubmitted), Phase(model.CCStageScreening)}:        "Begin Screening",
			{Phase(model.CCStageScreening), Phase(model.CCStageImpactAssessment)}: "Start Impact Assessment",
			{Phase(model.CCStageImpactAssessment), Phase(model.CCStageApproval)}:  "Submit for Approval",
			{Phase(model.CCStageApproval), Phase(model.CCStageImplementation)}:    "Approve Change",
			{Phase(model.CCStageImplementation), Phase(model.CCStageVerification)}: "Begin Verification",
			{Phase(model.CCStageVerification), Phase(model.CCStageClosed)}:        "Close Change Control",
		},
		Policies: map[Edge]ApprovalPolicy{
			{Phase(model.CCStageApproval), Phase(model.CCStageImplementation)}: PolicyAllTiers,
		},
		Tiers: map[Phase][]TierSeed{
			Phase(model.CCStageApproval): {
				{Tier: model.TierQAManager, Sequence: 1},
				{Tier: model.TierDepartmentHead, Sequence: 2},
			},
		},
	}
}

func deviationGraph() *Graph {
	return &Graph{
		Entity:  EntityDeviation,
		Initial: Phase(model.DevStageOpened),
		Transitions: map[Phase][]Phase{
			Phase(model.DevStageOpened):                {Phase(model.DevStageQAReview)},
			Phase(model.DevStageQAReview):              {Phase(model.DevStageInvestigation)},
			Phase(model.DevStageInvestigation):         {Phase(model.DevStageCAPAPlan)},
			Phase(model.DevStageCAPAPlan):              {Phase(model.DevStagePendingCAPAApproval)},
			Phase(model.DevStagePendingCAPAApproval):   {Phase(model.DevStagePendingCAPACompletion)},
			Phase(model.DevStagePendingCAPACompletion): {Phase(model.DevStagePendingFinalApproval)},
			Phase(model.DevStagePendingFinalApproval):  {Phase(model.DevStageCompleted)},
			Phase(model.DevStageCompleted):             {},
		},
		Permissions: map[Edge]PermissionTag{
			{Phase(model.DevStageOpened), Phase(model.DevStageQAReview)}:                             PermAuthorOrAdmin,
			{Phase(model.DevStageQAReview), Phase(model.DevStageInvestigation)}:                      PermReviewer,
			{Phase(model.DevStageInvestigation), Phase(model.DevStageCAPAPlan)}:                      PermAuthorOrAdmin,
			{Phase(model.DevStageCAPAPlan), Phase(model.DevStagePendingCAPAApproval)}:                PermAuthorOrAdmin,
			{Phase(model.DevStagePendingCAPAApproval), Phase(model.DevStagePendingCAPACompletion)}:   PermApprover,
			{Phase(model.DevStagePendingCAPACompletion), Phase(model.DevStagePendingFinalApproval)}:  PermAuthorOrAdmin,
			{Phase(model.DevStagePendingFinalApproval), Phase(model.DevStageCompleted)}:              PermApprover,
		},
		Labels: map[Edge]string{
			{Phase(model.DevStageOpened), Phase(model.DevStageQAReview)}:                            "Submit for QA Review",
			{Phase(model.DevStageQAReview), Phase(model.DevStageInvestigation)}:                     "Start Investigation",
			{Phase(model.DevStageInvestigation), Phase(model.DevStageCAPAPlan)}:                     "Draft CAPA Plan",
			{Phase(model.DevStageCAPAPlan), Phase(model.DevStagePendingCAPAApproval)}:               "Submit CAPA Plan",
			{Phase(model.DevStagePendingCAPAApproval), Phase(model.DevStagePendingCAPACompletion)}:  "Approve CAPA Plan",
			{Phase(model.DevStagePendingCAPACompletion), Phase(model.DevStagePendingFinalApproval)}: "CAPA Actions Complete",
			{Phase(model.DevStagePendingFinalApproval), Phase(model.DevStageCompleted)}:             "Final Approval",
		},
		Policies: map[Edge]ApprovalPolicy{
			{Phase(model.DevStagePendingCAPAApproval), Phase(model.DevStagePendingCAPACompletion)}: PolicyAllTiers,
			{Phase(model.DevStagePendingFinalApproval), Phase(model.DevStageCompleted)}:            PolicyAllTiers,
		},
		Tiers: map[Phase][]TierSeed{
			Phase(model.DevStagePendingCAPAApproval): {
				{Tier: model.TierQAManager, Sequence: 1},
			},
			Phase(model.DevStagePendingFinalApproval): {
				{Tier: model.TierQAManager, Sequence: 1},
				{Tier: model.TierQAHead, Sequence: 2},
			},
		},
	}
}

func documentGraph() *Graph {
	return &Graph{
		Entity:  EntityDocument,
		Initial: Phase(model.DocStateDraft),
		Transitions: map[Phase][]Phase{
			Phase(model.DocStateDraft):          {Phase(model.DocStateInReview), Phase(model.DocStateCancelled)},
			Phase(model.DocStateInReview):       {Phase(model.DocStateApproved), Phase(model.DocStateDraft), Phase(model.DocStateCancelled)},
			Phase(model.DocStateApproved):       {Phase(model.DocStateTrainingPeriod), Phase(model.DocStateEffective)},
			Phase(model.DocStateTrainingPeriod): {Phase(model.DocStateEffective)},
			Phase(model.DocStateEffective):      {Phase(model.DocStateSuperseded), Phase(model.DocStateObsolete), Phase(model.DocStateArchived), Phase(model.DocStateInReview)},
			Phase(model.DocStateSuperseded):     {Phase(model.DocStateArchived)},
			Phase(model.DocStateObsolete):       {Phase(model.DocStateArchived)},
			Phase(model.DocStateArchived):       {},
			Phase(model.DocStateCancelled):      {},
		},
		Permissions: map[Edge]PermissionTag{
			{Phase(model.DocStateDraft), Phase(model.DocStateInReview)}:           PermAuthor,
			{Phase(model.DocStateDraft), Phase(model.DocStateCancelled)}:          PermAuthorOrAdmin,
			{Phase(model.DocStateInReview), Phase(model.DocStateApproved)}:        PermApprover,
			{Phase(model.DocStateInReview), Phase(model.DocStateDraft)}:           PermReviewer,
			{Phase(model.DocStateInReview), Phase(model.DocStateCancelled)}:       PermAdmin,
			{Phase(model.DocStateApproved), Phase(model.DocStateTrainingPeriod)}:  PermSystem,
			{Phase(model.DocStateApproved), Phase(model.DocStateEffective)}:       PermSystemOrAdmin,
			{Phase(model.DocStateTrainingPeriod), Phase(model.DocStateEffective)}: PermSystem,
			{Phase(model.DocStateEffective), Phase(model.DocStateSuperseded)}:     PermAdmin,
			{Phase(model.DocStateEffective), Phase(model.DocStateObsolete)}:       PermAdmin,
			{Phase(model.DocStateEffective), Phase(model.DocStateArchived)}:       PermAdmin,
			{Phase(model.DocStateEffective), Phase(model.DocStateInReview)}:       PermAuthorOrAdmin,
			{Phase(model.DocStateSuperseded), Phase(model.DocStateArchived)}:      PermAdmin,
			{Phase(model.DocStateObsolete), Phase(model.DocStateArchived)}:        PermAdmin,
		},
		Labels: map[Edge]string{
			{Phase(model.DocStateDraft), Phase(model.DocStateInReview)}:           "Submit for Review",
			{Phase(model.DocStateDraft), Phase(model.DocStateCancelled)}:          "Cancel Document",
			{Phase(model.DocStateInReview), Phase(model.DocStateApproved)}:        "Approve",
			{Phase(model.DocStateInReview), Phase(model.DocStateDraft)}:           "Reject / Return to Draft",
			{Phase(model.DocStateInReview), Phase(model.DocStateCancelled)}:       "Cancel Document",
			{Phase(model.DocStateApproved), Phase(model.DocStateTrainingPeriod)}:  "Begin Training Period",
			{Phase(model.DocStateApproved), Phase(model.DocStateEffective)}:       "Make Effective",
			{Phase(model.DocStateTrainingPeriod), Phase(model.DocStateEffective)}: "Training Complete - Make Effective",
			{Phase(model.DocStateEffective), Phase(model.DocStateSuperseded)}:     "Supersede",
			{Phase(model.DocStateEffective), Phase(model.DocStateObsolete)}:       "Make Obsolete",
			{Phase(model.DocStateEffective), Phase(model.DocStateArchived)}:       "Archive",
			{Phase(model.DocStateEffective), Phase(model.DocStateInReview)}:       "Initiate Revision",
			{Phase(model.DocStateSuperseded), Phase(model.DocStateArchived)}:      "Archive",
			{Phase(model.DocStateObsolete), Phase(model.DocStateArchived)}:        "Archive",
		},
		Policies: map[Edge]ApprovalPolicy{
			{Phase(model.DocStateInReview), Phase(model.DocStateApproved)}: PolicyAllTiers,
		},
		// Document approvers are registered per record when the author
		// submits for review, so no fixed tier seeds here.
		Tiers: map[Phase][]TierSeed{},
	}
}
