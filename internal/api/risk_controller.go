package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/auth"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
)

// RiskController handles hazard analysis and FMEA endpoints.
type RiskController struct {
	riskService service.RiskService
}

// NewRiskController creates a risk controller.
func NewRiskController(riskService service.RiskService) *RiskController {
	return &RiskController{
		riskService: riskService,
	}
}

// CreateHazard registers a new hazard.
func (c *RiskController) CreateHazard(ctx *gin.Context) {
	var h model.Hazard
	if err := ctx.ShouldBindJSON(&h); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	created, err := c.riskService.CreateHazard(ctx.Request.Context(), &h, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, created)
}

// GetHazard returns a hazard with its assessments and mitigations.
func (c *RiskController) GetHazard(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	h, err := c.riskService.GetHazard(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, h)
}

// ListHazards returns all hazards.
func (c *RiskController) ListHazards(ctx *gin.Context) {
	hazards, err := c.riskService.ListHazards()
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, hazards)
}

// UpdateHazard edits a hazard.
func (c *RiskController) UpdateHazard(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var h model.Hazard
	if err := ctx.ShouldBindJSON(&h); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	h.ID = id

	updated, err := c.riskService.UpdateHazard(ctx.Request.Context(), &h, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, updated)
}

// DeleteHazard removes a hazard with its assessments and mitigations.
func (c *RiskController) DeleteHazard(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	if err := c.riskService.DeleteHazard(ctx.Request.Context(), id, auth.ActorFromContext(ctx)); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// SaveAssessment scores a hazard and computes its RPN.
func (c *RiskController) SaveAssessment(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var a model.RiskAssessment
	if err := ctx.ShouldBindJSON(&a); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	a.HazardID = id

	saved, err := c.riskService.SaveAssessment(ctx.Request.Context(), &a, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, saved)
}

// SaveMitigation records a mitigation for a hazard.
func (c *RiskController) SaveMitigation(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var m model.RiskMitigation
	if err := ctx.ShouldBindJSON(&m); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	m.HazardID = id

	saved, err := c.riskService.SaveMitigation(ctx.Request.Context(), &m, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, saved)
}

// CreateWorksheet opens a new FMEA worksheet.
func (c *RiskController) CreateWorksheet(ctx *gin.Context) {
	var w model.FMEAWorksheet
	if err := ctx.ShouldBindJSON(&w); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	created, err := c.riskService.CreateWorksheet(ctx.Request.Context(), &w, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, created)
}

// GetWorksheet returns an FMEA worksheet with its records.
func (c *RiskController) GetWorksheet(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	w, err := c.riskService.GetWorksheet(id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, w)
}

// SaveFMEARecord saves a failure mode line and computes its RPN.
func (c *RiskController) SaveFMEARecord(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}

	var rec model.FMEARecord
	if err := ctx.ShouldBindJSON(&rec); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	rec.WorksheetID = id

	saved, err := c.riskService.SaveFMEARecord(ctx.Request.Context(), &rec, auth.ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, saved)
}
