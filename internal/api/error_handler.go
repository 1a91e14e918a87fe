package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

// APIError carries an HTTP status alongside the message.
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware turns errors pushed onto the gin context into
// the unified error envelope.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				Error(c, http.StatusInternalServerError, "internal server error", err.Error())
			}
		}
	}
}

// WrapError attaches an HTTP status to an error.
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// RespondError maps domain errors onto HTTP responses. Workflow rule
// violations get distinct statuses so clients can react to each case.
func RespondError(c *gin.Context, err error) {
	var gateErr *workflow.GateNotSatisfiedError
	if errors.As(err, &gateErr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: "phase requirements not met",
			Detail:  gateErr.Error(),
			Missing: gateErr.Missing,
		})
		return
	}

	var permErr *workflow.PermissionDeniedError
	if errors.As(err, &permErr) {
		Error(c, http.StatusForbidden, "permission denied", permErr.Error())
		return
	}

	var apprvErr *workflow.UnknownApproverError
	if errors.As(err, &apprvErr) {
		Error(c, http.StatusForbidden, "not a registered approver", apprvErr.Error())
		return
	}

	var transErr *workflow.IllegalTransitionError
	if errors.As(err, &transErr) {
		Error(c, http.StatusConflict, "illegal transition", transErr.Error())
		return
	}

	var apprErr *workflow.ApprovalsPendingError
	if errors.As(err, &apprErr) {
		Error(c, http.StatusConflict, "approvals pending", apprErr.Error())
		return
	}

	var confErr *workflow.ConflictError
	if errors.As(err, &confErr) {
		Error(c, http.StatusConflict, "record was modified concurrently", confErr.Error())
		return
	}

	var refErr *workflow.DanglingReferenceError
	if errors.As(err, &refErr) {
		Error(c, http.StatusBadRequest, "invalid reference", refErr.Error())
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		Error(c, http.StatusNotFound, "record not found", err.Error())
		return
	}

	if errors.Is(err, service.ErrSignatureVerification) {
		Error(c, http.StatusUnauthorized, "signature verification failed", err.Error())
		return
	}

	Error(c, http.StatusInternalServerError, "internal server error", err.Error())
}
