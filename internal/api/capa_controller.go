package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/auth"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/utils"
)

// TransitionRequest drives a workflow phase change.
type TransitionRequest struct {
	TargetPhase string  `json:"target_phase" binding:"required"`
	Comment     string  `json:"comment"`
	SignatureID *string `json:"signature_id"`
}

// parseRecordID parses the numeric :id path parameter.
func parseRecordID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		Error(ctx, http.StatusBadRequest, "invalid record ID", err.Error())
		return 0, false
	}
	return uint(id), true
}

func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	return uint(v), err
}

// queryFilter returns a pointer to the query value when present.
func queryFilter(ctx *gin.Context, key string) *string {
	if v, ok := ctx.GetQuery(key); ok {
		return &v
	}
	return nil
}

// CAPAController handles CAPA record endpoints.
type CAPAController struct {
	capaService service.CAPAService
}

// NewCAPAController creates a CAPA controller.
func NewCAPAController(capaService service.CAPAService) *CAPAController {
	return &CAPAController{
		capaService: capaService,
	}
}

// Create opens a new CAPA record in the investigation phase.
func (c *CAPAController) Create(ctx *gin.Context) {
	var capa model.CAPA
	if err := ctx.ShouldBindJSON(&capa); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	created, err := c.capaService.Create(ctx.Request.Context(), &capa, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, created)
}

// Get returns a CAPA by numeric ID.
func (c *CAPAController) Get(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	capa, err := c.capaService.Get(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, capa)
}

// GetByBusinessID returns a CAPA by its business identifier.
func (c *CAPAController) GetByBusinessID(ctx *gin.Context) {
	businessID := ctx.Param("capa_id")
	if err := utils.ValidateBusinessID(businessID); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid CAPA ID", err.Error())
		return
	}

	capa, err := c.capaService.GetByBusinessID(businessID)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, capa)
}

// List returns CAPA records matching the query filters.
func (c *CAPAController) List(ctx *gin.Context) {
	filter := &repository.CAPAFilter{
		Phase:      queryFilter(ctx, "phase"),
		Priority:   queryFilter(ctx, "priority"),
		Source:     queryFilter(ctx, "source"),
		AssignedTo: queryFilter(ctx, "assigned_to"),
		CreatedBy:  queryFilter(ctx, "created_by"),
	}

	capas, err := c.capaService.List(filter)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, capas)
}

// Update edits a CAPA's content fields.
func (c *CAPAController) Update(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var capa model.CAPA
	if err := ctx.ShouldBindJSON(&capa); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	capa.ID = id

	updated, err := c.capaService.Update(ctx.Request.Context(), &capa, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, updated)
}

// Delete removes a CAPA and clears references pointing at it.
func (c *CAPAController) Delete(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	if err := c.capaService.Delete(ctx.Request.Context(), id, auth.ActorFromContext(ctx)); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// Transition moves a CAPA to a target phase.
func (c *CAPAController) Transition(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	capa, err := c.capaService.Transition(ctx.Request.Context(), id, req.TargetPhase, req.Comment, req.SignatureID, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, capa)
}

// AvailableTransitions lists the transitions allowed from the current phase.
func (c *CAPAController) AvailableTransitions(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	options, err := c.capaService.AvailableTransitions(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, options)
}

// History returns the phase history of a CAPA.
func (c *CAPAController) History(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	history, err := c.capaService.History(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, history)
}

// Approvals returns the approval chain entries of a CAPA.
func (c *CAPAController) Approvals(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	approvals, err := c.capaService.Approvals(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, approvals)
}

// RespondApproval records an approver's decision for a phase.
func (c *CAPAController) RespondApproval(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var req service.ApprovalResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	approval, err := c.capaService.RespondApproval(ctx.Request.Context(), id, &req, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, approval)
}
