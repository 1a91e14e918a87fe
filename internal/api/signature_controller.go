package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
)

// SignatureController handles electronic signature endpoints.
type SignatureController struct {
	signatureService service.SignatureService
}

// NewSignatureController creates a signature controller.
func NewSignatureController(signatureService service.SignatureService) *SignatureController {
	return &SignatureController{
		signatureService: signatureService,
	}
}

// Sign verifies the signer's credentials and records a signature.
func (c *SignatureController) Sign(ctx *gin.Context) {
	var req service.SignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	sig, err := c.signatureService.Sign(ctx.Request.Context(), &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Created(ctx, sig)
}

// Get returns a recorded signature by its ID.
func (c *SignatureController) Get(ctx *gin.Context) {
	sig, err := c.signatureService.Get(ctx.Param("id"))
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, sig)
}
