package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/auth"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
)

// SubmitReviewRequest starts a review cycle with named approvers.
type SubmitReviewRequest struct {
	Approvers []string `json:"approvers" binding:"required,min=1"`
}

// DocumentController handles controlled document endpoints.
type DocumentController struct {
	documentService service.DocumentService
}

// NewDocumentController creates a document controller.
func NewDocumentController(documentService service.DocumentService) *DocumentController {
	return &DocumentController{
		documentService: documentService,
	}
}

// Create opens a new document in draft state.
func (c *DocumentController) Create(ctx *gin.Context) {
	var doc model.Document
	if err := ctx.ShouldBindJSON(&doc); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	created, err := c.documentService.Create(ctx.Request.Context(), &doc, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, created)
}

// Get returns a document by numeric ID.
func (c *DocumentController) Get(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	doc, err := c.documentService.Get(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, doc)
}

// List returns documents matching the query filters.
func (c *DocumentController) List(ctx *gin.Context) {
	filter := &repository.DocumentFilter{
		State:        queryFilter(ctx, "state"),
		InfocardType: queryFilter(ctx, "infocard_type"),
		Owner:        queryFilter(ctx, "owner"),
	}

	docs, err := c.documentService.List(filter)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, docs)
}

// Update edits a document's content. Content is locked outside draft
// and review states.
func (c *DocumentController) Update(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var doc model.Document
	if err := ctx.ShouldBindJSON(&doc); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	doc.ID = id

	updated, err := c.documentService.Update(ctx.Request.Context(), &doc, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, updated)
}

// Delete removes a document and clears references pointing at it.
func (c *DocumentController) Delete(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	if err := c.documentService.Delete(ctx.Request.Context(), id, auth.ActorFromContext(ctx)); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// SubmitForReview registers the approvers and moves the document
// into review.
func (c *DocumentController) SubmitForReview(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	doc, err := c.documentService.SubmitForReview(ctx.Request.Context(), id, req.Approvers, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, doc)
}

// RespondReview records one approver's review decision. A rejection
// returns the document to draft; the final approval moves it forward.
func (c *DocumentController) RespondReview(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var req service.ApprovalResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	doc, err := c.documentService.RespondReview(ctx.Request.Context(), id, &req, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, doc)
}

// MakeEffective promotes an approved document, via the training
// period when training is required.
func (c *DocumentController) MakeEffective(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	doc, err := c.documentService.MakeEffective(ctx.Request.Context(), id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, doc)
}

// Transition moves a document along the lifecycle graph.
func (c *DocumentController) Transition(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	doc, err := c.documentService.Transition(ctx.Request.Context(), id, req.TargetPhase, req.Comment, req.SignatureID, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, doc)
}

// AvailableTransitions lists the lifecycle states reachable from the
// current one.
func (c *DocumentController) AvailableTransitions(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	options, err := c.documentService.AvailableTransitions(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, options)
}

// History returns the lifecycle history of a document.
func (c *DocumentController) History(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	history, err := c.documentService.History(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, history)
}

// Approvals returns the review chain entries of a document.
func (c *DocumentController) Approvals(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	approvals, err := c.documentService.Approvals(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, approvals)
}
