package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/auth"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
)

// ChangeControlController handles change control endpoints.
type ChangeControlController struct {
	ccService service.ChangeControlService
}

// NewChangeControlController creates a change control controller.
func NewChangeControlController(ccService service.ChangeControlService) *ChangeControlController {
	return &ChangeControlController{
		ccService: ccService,
	}
}

// Create opens a new change control in the submitted stage.
func (c *ChangeControlController) Create(ctx *gin.Context) {
	var cc model.ChangeControl
	if err := ctx.ShouldBindJSON(&cc); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	created, err := c.ccService.Create(ctx.Request.Context(), &cc, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, created)
}

// Get returns a change control by numeric ID.
func (c *ChangeControlController) Get(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	cc, err := c.ccService.Get(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, cc)
}

// List returns change controls matching the query filters.
func (c *ChangeControlController) List(ctx *gin.Context) {
	filter := &repository.ChangeControlFilter{
		Stage:       queryFilter(ctx, "stage"),
		ChangeType:  queryFilter(ctx, "change_type"),
		RiskLevel:   queryFilter(ctx, "risk_level"),
		RequestedBy: queryFilter(ctx, "requested_by"),
	}

	ccs, err := c.ccService.List(filter)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, ccs)
}

// Update edits a change control's content fields.
func (c *ChangeControlController) Update(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var cc model.ChangeControl
	if err := ctx.ShouldBindJSON(&cc); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	cc.ID = id

	updated, err := c.ccService.Update(ctx.Request.Context(), &cc, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, updated)
}

// Delete removes a change control and its tasks.
func (c *ChangeControlController) Delete(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	if err := c.ccService.Delete(ctx.Request.Context(), id, auth.ActorFromContext(ctx)); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// Transition moves a change control to a target stage.
func (c *ChangeControlController) Transition(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	cc, err := c.ccService.Transition(ctx.Request.Context(), id, req.TargetPhase, req.Comment, req.SignatureID, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, cc)
}

// AvailableTransitions lists the stages reachable from the current one.
func (c *ChangeControlController) AvailableTransitions(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	options, err := c.ccService.AvailableTransitions(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, options)
}

// History returns the stage history of a change control.
func (c *ChangeControlController) History(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	history, err := c.ccService.History(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, history)
}

// Approvals returns the approval chain entries of a change control.
func (c *ChangeControlController) Approvals(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	approvals, err := c.ccService.Approvals(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, approvals)
}

// RespondApproval records an approver's decision for a stage.
func (c *ChangeControlController) RespondApproval(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var req service.ApprovalResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	approval, err := c.ccService.RespondApproval(ctx.Request.Context(), id, &req, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, approval)
}

// AddTask attaches an implementation task to a change control.
func (c *ChangeControlController) AddTask(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var task model.ChangeControlTask
	if err := ctx.ShouldBindJSON(&task); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	task.ChangeControlID = id

	created, err := c.ccService.AddTask(ctx.Request.Context(), &task, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, created)
}

// UpdateTask edits an implementation task.
func (c *ChangeControlController) UpdateTask(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	taskID, err := parseUintParam(ctx, "task_id")
	if err != nil {
		Error(ctx, http.StatusBadRequest, "invalid task ID", err.Error())
		return
	}

	var task model.ChangeControlTask
	if err := ctx.ShouldBindJSON(&task); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	task.ID = taskID
	task.ChangeControlID = id

	updated, err := c.ccService.UpdateTask(ctx.Request.Context(), &task, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, updated)
}

// Tasks lists the implementation tasks of a change control.
func (c *ChangeControlController) Tasks(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	tasks, err := c.ccService.Tasks(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, tasks)
}
