package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
)

// AuditLogService records who did what to which record.
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
}

type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService creates an audit log service.
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction writes one audit log entry. Request metadata is taken from
// the context when the API layer put it there.
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	requestID := ""
	if req := ctx.Value("request_id"); req != nil {
		requestID, _ = req.(string)
	}

	auditLog := &model.AuditLog{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    requestID,
		IP:           GetClientIP(ctx),
		UserAgent:    GetUserAgent(ctx),
		Details:      string(detailsJSON),
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(auditLog)
}

// GetClientIP returns the client IP stored in the request context.
func GetClientIP(ctx context.Context) string {
	if req := ctx.Value("ip"); req != nil {
		if ip, ok := req.(string); ok {
			return ip
		}
	}
	return ""
}

// GetUserAgent returns the user agent stored in the request context.
func GetUserAgent(ctx context.Context) string {
	if req := ctx.Value("user_agent"); req != nil {
		if ua, ok := req.(string); ok {
			return ua
		}
	}
	return ""
}
