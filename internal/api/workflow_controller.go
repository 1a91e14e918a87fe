package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

// WorkflowController exposes the phase graph definitions.
type WorkflowController struct {
	registry *workflow.Registry
}

// NewWorkflowController creates a workflow controller.
func NewWorkflowController(registry *workflow.Registry) *WorkflowController {
	return &WorkflowController{
		registry: registry,
	}
}

// Entities lists the entity types with a registered phase graph.
func (c *WorkflowController) Entities(ctx *gin.Context) {
	Success(ctx, c.registry.Entities())
}

// Transitions lists the transitions allowed out of a phase for an
// entity type.
func (c *WorkflowController) Transitions(ctx *gin.Context) {
	entity := workflow.EntityType(ctx.Param("entity"))
	phase := workflow.Phase(ctx.Param("phase"))

	graph, ok := c.registry.Graph(entity)
	if !ok {
		Error(ctx, http.StatusNotFound, "unknown entity type", string(entity))
		return
	}
	if !graph.IsKnown(phase) {
		Error(ctx, http.StatusNotFound, "unknown phase", string(phase))
		return
	}

	Success(ctx, graph.AvailableTransitions(phase))
}
