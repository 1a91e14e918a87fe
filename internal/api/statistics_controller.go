package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
)

// StatisticsController exposes quality metrics used on review dashboards.
type StatisticsController struct {
	statisticsService service.StatisticsService
}

// NewStatisticsController creates a statistics controller.
func NewStatisticsController(statisticsService service.StatisticsService) *StatisticsController {
	return &StatisticsController{
		statisticsService: statisticsService,
	}
}

// RecordsByPhase counts one entity's records per workflow phase.
func (c *StatisticsController) RecordsByPhase(ctx *gin.Context) {
	entity := ctx.Param("entity")

	stats, err := c.statisticsService.GetRecordStatisticsByPhase(entity)
	if err != nil {
		Error(ctx, http.StatusBadRequest, "failed to get phase statistics", err.Error())
		return
	}

	Success(ctx, stats)
}

// RecordsByTime counts one entity's records created per day.
func (c *StatisticsController) RecordsByTime(ctx *gin.Context) {
	entity := ctx.Param("entity")

	stats, err := c.statisticsService.GetRecordStatisticsByTime(entity)
	if err != nil {
		Error(ctx, http.StatusBadRequest, "failed to get time statistics", err.Error())
		return
	}

	Success(ctx, stats)
}

// Approvals summarizes approval chain outcomes across all record types.
func (c *StatisticsController) Approvals(ctx *gin.Context) {
	stats, err := c.statisticsService.GetApprovalStatistics()
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to get approval statistics", err.Error())
		return
	}

	Success(ctx, stats)
}

// OverdueCAPAs lists open CAPAs past their target completion date.
func (c *StatisticsController) OverdueCAPAs(ctx *gin.Context) {
	capas, err := c.statisticsService.GetOverdueCAPAs()
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list overdue CAPAs", err.Error())
		return
	}

	Success(ctx, capas)
}
