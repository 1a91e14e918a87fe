package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/auth"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
)

// DeviationController handles deviation endpoints.
type DeviationController struct {
	deviationService service.DeviationService
}

// NewDeviationController creates a deviation controller.
func NewDeviationController(deviationService service.DeviationService) *DeviationController {
	return &DeviationController{
		deviationService: deviationService,
	}
}

// Create opens a new deviation in the opened stage.
func (c *DeviationController) Create(ctx *gin.Context) {
	var dev model.Deviation
	if err := ctx.ShouldBindJSON(&dev); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	created, err := c.deviationService.Create(ctx.Request.Context(), &dev, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, created)
}

// Get returns a deviation by numeric ID.
func (c *DeviationController) Get(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	dev, err := c.deviationService.Get(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, dev)
}

// List returns deviations matching the query filters.
func (c *DeviationController) List(ctx *gin.Context) {
	filter := &repository.DeviationFilter{
		Stage:      queryFilter(ctx, "stage"),
		Severity:   queryFilter(ctx, "severity"),
		Source:     queryFilter(ctx, "source"),
		ReportedBy: queryFilter(ctx, "reported_by"),
	}

	devs, err := c.deviationService.List(filter)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, devs)
}

// Update edits a deviation's content fields.
func (c *DeviationController) Update(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var dev model.Deviation
	if err := ctx.ShouldBindJSON(&dev); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	dev.ID = id

	updated, err := c.deviationService.Update(ctx.Request.Context(), &dev, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, updated)
}

// Delete removes a deviation and clears references pointing at it.
func (c *DeviationController) Delete(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	if err := c.deviationService.Delete(ctx.Request.Context(), id, auth.ActorFromContext(ctx)); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// Transition moves a deviation to a target stage.
func (c *DeviationController) Transition(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	dev, err := c.deviationService.Transition(ctx.Request.Context(), id, req.TargetPhase, req.Comment, req.SignatureID, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, dev)
}

// AvailableTransitions lists the stages reachable from the current one.
func (c *DeviationController) AvailableTransitions(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	options, err := c.deviationService.AvailableTransitions(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, options)
}

// History returns the stage history of a deviation.
func (c *DeviationController) History(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	history, err := c.deviationService.History(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, history)
}

// Approvals returns the approval chain entries of a deviation.
func (c *DeviationController) Approvals(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	approvals, err := c.deviationService.Approvals(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, approvals)
}

// RespondApproval records an approver's decision for a stage.
func (c *DeviationController) RespondApproval(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var req service.ApprovalResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	approval, err := c.deviationService.RespondApproval(ctx.Request.Context(), id, &req, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, approval)
}

// SpawnCAPA creates a CAPA pre-filled from the deviation and links it back.
func (c *DeviationController) SpawnCAPA(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var capa model.CAPA
	if err := ctx.ShouldBindJSON(&capa); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	created, err := c.deviationService.SpawnCAPA(ctx.Request.Context(), id, &capa, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, created)
}
