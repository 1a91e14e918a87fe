package service_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/sequence"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

type serviceTestEnv struct {
	db           *gorm.DB
	engine       *workflow.Engine
	generator    *sequence.Generator
	approvalRepo repository.ApprovalRepository
	historyRepo  repository.HistoryRepository
}

func setupServiceEnv(t *testing.T) *serviceTestEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.CAPA{}, &model.ChangeControl{}, &model.ChangeControlTask{},
		&model.Deviation{}, &model.Document{},
		&model.Approval{}, &model.ElectronicSignature{}, &model.PhaseHistory{},
		&model.AuditLog{}, &model.AuditFinding{}, &model.Complaint{},
		&model.Hazard{}, &model.RiskAssessment{}, &model.RiskMitigation{},
		&model.FMEAWorksheet{}, &model.FMEARecord{},
	)
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	approvalRepo := repository.NewApprovalRepository(db)
	return &serviceTestEnv{
		db:           db,
		engine:       workflow.NewEngine(db, workflow.NewRegistry(), workflow.DefaultGates(), approvalRepo, log),
		generator:    sequence.NewGenerator(db),
		approvalRepo: approvalRepo,
		historyRepo:  repository.NewHistoryRepository(db),
	}
}

func newDocumentService(t *testing.T) (service.DocumentService, *serviceTestEnv) {
	env := setupServiceEnv(t)
	svc := service.NewDocumentService(
		repository.NewDocumentRepository(env.db),
		env.approvalRepo,
		env.historyRepo,
		env.engine,
		env.generator,
		env.db,
		nil,
	)
	return svc, env
}

func createDraft(t *testing.T, svc service.DocumentService, owner string) *model.Document {
	doc, err := svc.Create(context.Background(), &model.Document{
		Title:        "gowning procedure",
		InfocardType: "sop",
		Owner:        owner,
	}, workflow.NewActor(owner))
	require.NoError(t, err)
	return doc
}

// TestDocumentService_Create verifies ID assignment and draft defaults.
func TestDocumentService_Create(t *testing.T) {
	svc, _ := newDocumentService(t)

	doc := createDraft(t, svc, "alice")
	assert.Regexp(t, `^DOC-\d{4}-0001$`, doc.DocumentID)
	assert.Equal(t, model.DocStateDraft, doc.CurrentPhase)
	assert.Equal(t, 1, doc.MajorVersion)
	assert.Equal(t, "alice", doc.CreatedBy)
}

// TestDocumentService_ReviewApproveFlow walks the draft through review
// to approved once every registered approver signs off.
func TestDocumentService_ReviewApproveFlow(t *testing.T) {
	svc, env := newDocumentService(t)
	ctx := context.Background()

	doc := createDraft(t, svc, "alice")

	doc, err := svc.SubmitForReview(ctx, doc.ID, []string{"bob", "carol"}, workflow.NewActor("alice"))
	require.NoError(t, err)
	assert.Equal(t, model.DocStateInReview, doc.CurrentPhase)

	state, err := env.approvalRepo.PhaseState("document", doc.ID, model.DocStateInReview)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Total)
	assert.Equal(t, 2, state.Pending)

	// First approval leaves the document in review.
	doc, err = svc.RespondReview(ctx, doc.ID, &service.ApprovalResponseRequest{
		Phase:  model.DocStateInReview,
		Status: model.ApprovalApproved,
	}, workflow.NewActor("bob"))
	require.NoError(t, err)
	assert.Equal(t, model.DocStateInReview, doc.CurrentPhase)

	// The last approval advances it to approved.
	doc, err = svc.RespondReview(ctx, doc.ID, &service.ApprovalResponseRequest{
		Phase:  model.DocStateInReview,
		Status: model.ApprovalApproved,
	}, workflow.NewActor("carol"))
	require.NoError(t, err)
	assert.Equal(t, model.DocStateApproved, doc.CurrentPhase)
}

// TestDocumentService_ReviewReject verifies a rejection returns the
// document to draft.
func TestDocumentService_ReviewReject(t *testing.T) {
	svc, _ := newDocumentService(t)
	ctx := context.Background()

	doc := createDraft(t, svc, "alice")
	doc, err := svc.SubmitForReview(ctx, doc.ID, []string{"bob"}, workflow.NewActor("alice"))
	require.NoError(t, err)

	doc, err = svc.RespondReview(ctx, doc.ID, &service.ApprovalResponseRequest{
		Phase:    model.DocStateInReview,
		Status:   model.ApprovalRejected,
		Comments: "section 4 references the retired cleanroom",
	}, workflow.NewActor("bob"))
	require.NoError(t, err)
	assert.Equal(t, model.DocStateDraft, doc.CurrentPhase)
}

// TestDocumentService_RepeatedResponseOverwrites verifies an approver's
// second response replaces the first instead of adding a row.
func TestDocumentService_RepeatedResponseOverwrites(t *testing.T) {
	svc, env := newDocumentService(t)
	ctx := context.Background()

	doc := createDraft(t, svc, "alice")
	doc, err := svc.SubmitForReview(ctx, doc.ID, []string{"bob", "carol"}, workflow.NewActor("alice"))
	require.NoError(t, err)

	_, err = svc.RespondReview(ctx, doc.ID, &service.ApprovalResponseRequest{
		Phase:  model.DocStateInReview,
		Status: model.ApprovalApproved,
	}, workflow.NewActor("bob"))
	require.NoError(t, err)

	_, err = svc.RespondReview(ctx, doc.ID, &service.ApprovalResponseRequest{
		Phase:    model.DocStateInReview,
		Status:   model.ApprovalRejected,
		Comments: "changed my mind",
	}, workflow.NewActor("bob"))
	require.NoError(t, err)

	approvals, err := env.approvalRepo.FindForPhase("document", doc.ID, model.DocStateInReview)
	require.NoError(t, err)
	assert.Len(t, approvals, 2)

	state, err := env.approvalRepo.PhaseState("document", doc.ID, model.DocStateInReview)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalRejected, state.Status["bob"])
}

// TestDocumentService_UnregisteredApproverRejected verifies a responder
// who was never registered on the review chain cannot inject a decision
// or move the document.
func TestDocumentService_UnregisteredApproverRejected(t *testing.T) {
	svc, env := newDocumentService(t)
	ctx := context.Background()

	doc := createDraft(t, svc, "alice")
	doc, err := svc.SubmitForReview(ctx, doc.ID, []string{"bob"}, workflow.NewActor("alice"))
	require.NoError(t, err)

	_, err = svc.RespondReview(ctx, doc.ID, &service.ApprovalResponseRequest{
		Phase:  model.DocStateInReview,
		Status: model.ApprovalRejected,
	}, workflow.NewActor("mallory"))
	var unknownErr *workflow.UnknownApproverError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "mallory", unknownErr.ActorID)

	// The chain still holds only bob's pending slot and the document
	// stays in review.
	approvals, err := env.approvalRepo.FindForPhase("document", doc.ID, model.DocStateInReview)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, "bob", approvals[0].Approver)
	assert.Equal(t, model.ApprovalPending, approvals[0].Status)

	var reloaded model.Document
	require.NoError(t, env.db.First(&reloaded, doc.ID).Error)
	assert.Equal(t, model.DocStateInReview, reloaded.CurrentPhase)
}

// TestDocumentService_SubmitRequiresAuthor verifies only the owner can
// submit a draft for review.
func TestDocumentService_SubmitRequiresAuthor(t *testing.T) {
	svc, _ := newDocumentService(t)

	doc := createDraft(t, svc, "alice")
	_, err := svc.SubmitForReview(context.Background(), doc.ID, []string{"bob"}, workflow.NewActor("mallory"))

	var permErr *workflow.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)
}

// TestDocumentService_MakeEffective verifies the automatic advance,
// including the training period detour.
func TestDocumentService_MakeEffective(t *testing.T) {
	svc, env := newDocumentService(t)
	ctx := context.Background()

	doc := createDraft(t, svc, "alice")
	require.NoError(t, env.db.Model(&model.Document{}).Where("id = ?", doc.ID).
		Update("current_phase", model.DocStateApproved).Error)

	doc, err := svc.MakeEffective(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocStateEffective, doc.CurrentPhase)
	assert.NotNil(t, doc.EffectiveDate)

	// A document requiring training passes through the training period.
	trained := createDraft(t, svc, "alice")
	require.NoError(t, env.db.Model(&model.Document{}).Where("id = ?", trained.ID).
		Updates(map[string]interface{}{
			"current_phase":     model.DocStateApproved,
			"training_required": true,
		}).Error)

	trained, err = svc.MakeEffective(ctx, trained.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocStateTrainingPeriod, trained.CurrentPhase)
	assert.Nil(t, trained.EffectiveDate)

	trained, err = svc.MakeEffective(ctx, trained.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocStateEffective, trained.CurrentPhase)
	assert.NotNil(t, trained.EffectiveDate)
}

// TestDocumentService_ArchivedIsLocked verifies no edits or transitions
// leave an archived document.
func TestDocumentService_ArchivedIsLocked(t *testing.T) {
	svc, env := newDocumentService(t)
	ctx := context.Background()

	doc := createDraft(t, svc, "alice")
	require.NoError(t, env.db.Model(&model.Document{}).Where("id = ?", doc.ID).
		Update("current_phase", model.DocStateArchived).Error)

	doc.Title = "edited"
	_, err := svc.Update(ctx, doc, workflow.NewActor("qa-admin", workflow.RoleAdmin))
	var permErr *workflow.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)

	_, err = svc.Transition(ctx, doc.ID, model.DocStateDraft, "", nil,
		workflow.NewActor("qa-admin", workflow.RoleAdmin))
	var illegalErr *workflow.IllegalTransitionError
	require.ErrorAs(t, err, &illegalErr)
}
