package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/utils"
)

func newSignatureService(t *testing.T, credentials map[string]string) service.SignatureService {
	env := setupServiceEnv(t)
	return service.NewSignatureService(env.approvalRepo, service.NewBcryptVerifier(credentials), nil)
}

func hashedCredentials(t *testing.T, users map[string]string) map[string]string {
	out := make(map[string]string, len(users))
	for user, password := range users {
		hash, err := utils.HashPassword(password)
		require.NoError(t, err)
		out[user] = hash
	}
	return out
}

// TestSignatureService_Sign verifies a valid credential produces a
// manifest with the content hash.
func TestSignatureService_Sign(t *testing.T) {
	svc := newSignatureService(t, hashedCredentials(t, map[string]string{"alice": "s3cret"}))

	sig, err := svc.Sign(context.Background(), &service.SignRequest{
		UserID:   "alice",
		Password: "s3cret",
		Reason:   "approval",
		Meaning:  "I approve this CAPA plan",
		Content:  "CAPA-2026-0001 plan v2",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, "alice", sig.UserID)
	assert.Equal(t, "approval", sig.Reason)

	digest := sha256.Sum256([]byte("CAPA-2026-0001 plan v2"))
	assert.Equal(t, hex.EncodeToString(digest[:]), sig.ContentHash)
	assert.False(t, sig.SignedAt.IsZero())

	// The manifest is retrievable by ID.
	found, err := svc.Get(sig.ID)
	require.NoError(t, err)
	assert.Equal(t, sig.ContentHash, found.ContentHash)
}

// TestSignatureService_BadCredentials verifies wrong passwords and
// unknown users are both rejected.
func TestSignatureService_BadCredentials(t *testing.T) {
	svc := newSignatureService(t, hashedCredentials(t, map[string]string{"alice": "s3cret"}))

	_, err := svc.Sign(context.Background(), &service.SignRequest{
		UserID:   "alice",
		Password: "wrong",
		Reason:   "approval",
	})
	assert.ErrorIs(t, err, service.ErrSignatureVerification)

	_, err = svc.Sign(context.Background(), &service.SignRequest{
		UserID:   "nobody",
		Password: "s3cret",
		Reason:   "approval",
	})
	assert.ErrorIs(t, err, service.ErrSignatureVerification)
}

// TestSignatureService_NoVerifier verifies signing fails closed when no
// credential store is configured.
func TestSignatureService_NoVerifier(t *testing.T) {
	env := setupServiceEnv(t)
	svc := service.NewSignatureService(env.approvalRepo, nil, nil)

	_, err := svc.Sign(context.Background(), &service.SignRequest{
		UserID:   "alice",
		Password: "s3cret",
		Reason:   "approval",
	})
	assert.ErrorIs(t, err, service.ErrSignatureVerification)
}
