package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/utils"
)

// ErrSignatureVerification is returned when the supplied credentials do
// not match the signing user.
var ErrSignatureVerification = errors.New("signature credentials could not be verified")

// CredentialVerifier checks a user's password for electronic signing.
// The auth layer supplies the implementation.
type CredentialVerifier interface {
	Verify(userID, password string) bool
}

// BcryptVerifier verifies passwords against stored bcrypt hashes.
type BcryptVerifier struct {
	hashes map[string]string
}

// NewBcryptVerifier creates a verifier over a userID -> bcrypt hash map.
func NewBcryptVerifier(hashes map[string]string) *BcryptVerifier {
	return &BcryptVerifier{hashes: hashes}
}

// Verify reports whether the password matches the user's stored hash.
func (v *BcryptVerifier) Verify(userID, password string) bool {
	hash, ok := v.hashes[userID]
	if !ok {
		return false
	}
	return utils.VerifyPassword(password, hash)
}

// SignatureService creates 21 CFR Part 11 style electronic signature
// manifests: re-verified credentials, the signing reason, and a hash of
// the signed content.
type SignatureService interface {
	Sign(ctx context.Context, req *SignRequest) (*model.ElectronicSignature, error)
	Get(id string) (*model.ElectronicSignature, error)
}

// SignRequest carries the data for one signing act.
type SignRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Password string `json:"password" binding:"required"`
	Reason   string `json:"reason" binding:"required"` // approval/review/authorship
	Meaning  string `json:"meaning"`
	Content  string `json:"content"`
}

type signatureService struct {
	approvalRepo repository.ApprovalRepository
	verifier     CredentialVerifier
	auditLogSvc  AuditLogService
}

// NewSignatureService creates a signature service.
func NewSignatureService(approvalRepo repository.ApprovalRepository, verifier CredentialVerifier, auditLogSvc AuditLogService) SignatureService {
	return &signatureService{
		approvalRepo: approvalRepo,
		verifier:     verifier,
		auditLogSvc:  auditLogSvc,
	}
}

// Sign verifies the user's credentials and persists a signature manifest.
func (s *signatureService) Sign(ctx context.Context, req *SignRequest) (*model.ElectronicSignature, error) {
	if s.verifier == nil || !s.verifier.Verify(req.UserID, req.Password) {
		return nil, ErrSignatureVerification
	}

	digest := sha256.Sum256([]byte(req.Content))
	sig := &model.ElectronicSignature{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Reason:      req.Reason,
		Meaning:     req.Meaning,
		ContentHash: hex.EncodeToString(digest[:]),
		IPAddress:   GetClientIP(ctx),
		SignedAt:    time.Now(),
	}
	if err := s.approvalRepo.SaveSignature(sig); err != nil {
		return nil, err
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, req.UserID, "sign", "signature", sig.ID, map[string]string{
			"reason": req.Reason,
		})
	}
	return sig, nil
}

// Get looks up a signature manifest by ID.
func (s *signatureService) Get(id string) (*model.ElectronicSignature, error) {
	return s.approvalRepo.FindSignature(id)
}
