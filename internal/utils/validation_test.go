package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/utils"
)

// TestValidateBusinessID verifies accepted and rejected identifier forms.
func TestValidateBusinessID(t *testing.T) {
	valid := []string{
		"CAPA-2026-0001",
		"CC-2026-0042",
		"DEV-2025-9999",
		"DOC-2026-0100",
		"FMEA-2026-0001",
	}
	for _, id := range valid {
		assert.NoError(t, utils.ValidateBusinessID(id), id)
	}

	assert.ErrorIs(t, utils.ValidateBusinessID(""), utils.ErrEmptyID)
	assert.ErrorIs(t, utils.ValidateBusinessID("CAPA-2026-0001-0001-0001"), utils.ErrIDTooLong)

	invalid := []string{
		"capa-2026-0001",  // lowercase prefix
		"CAPA-26-0001",    // two digit year
		"CAPA-2026-1",     // unpadded sequence
		"CAPA_2026_0001",  // wrong separator
		"2026-CAPA-0001",  // swapped segments
		"CAPA-2026-00A1",  // non-numeric sequence
	}
	for _, id := range invalid {
		assert.ErrorIs(t, utils.ValidateBusinessID(id), utils.ErrInvalidIDFormat, id)
	}
}

// TestValidateRecordTitle verifies title validation rules.
func TestValidateRecordTitle(t *testing.T) {
	assert.NoError(t, utils.ValidateRecordTitle("Filter integrity failure on line 2"))

	assert.ErrorIs(t, utils.ValidateRecordTitle(""), utils.ErrEmptyName)
	assert.ErrorIs(t, utils.ValidateRecordTitle("   "), utils.ErrEmptyName)

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, utils.ValidateRecordTitle(string(long)), utils.ErrNameTooLong)

	assert.ErrorIs(t, utils.ValidateRecordTitle("<script>alert(1)</script>"), utils.ErrDangerousChars)
	assert.ErrorIs(t, utils.ValidateRecordTitle("x'; DROP TABLE capas"), utils.ErrDangerousChars)
}

// TestSanitizeString verifies escaping and control character removal.
func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; c", utils.SanitizeString("a <b> c"))
	assert.Equal(t, "line1\nline2", utils.SanitizeString("line1\nline2"))
	assert.Equal(t, "ab", utils.SanitizeString("a\x00b"))
}

// TestTrimAndValidate verifies the combined trim, length, and sanitize
// pipeline.
func TestTrimAndValidate(t *testing.T) {
	out, err := utils.TrimAndValidate("  hello  ", 10)
	assert.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = utils.TrimAndValidate("   ", 10)
	assert.ErrorIs(t, err, utils.ErrEmptyString)

	_, err = utils.TrimAndValidate("exceedingly long", 5)
	assert.ErrorIs(t, err, utils.ErrStringTooLong)
}

// TestPasswordRoundTrip verifies bcrypt hashing and verification.
func TestPasswordRoundTrip(t *testing.T) {
	hash, err := utils.HashPassword("s3cret")
	assert.NoError(t, err)
	assert.True(t, utils.VerifyPassword("s3cret", hash))
	assert.False(t, utils.VerifyPassword("wrong", hash))
}

// TestEncryptDecrypt verifies the AES-256-GCM round trip.
func TestEncryptDecrypt(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef"

	ciphertext, err := utils.Encrypt("confidential batch record", key)
	assert.NoError(t, err)
	assert.NotEqual(t, "confidential batch record", ciphertext)

	plaintext, err := utils.Decrypt(ciphertext, key)
	assert.NoError(t, err)
	assert.Equal(t, "confidential batch record", plaintext)

	_, err = utils.Encrypt("data", "short key")
	assert.Error(t, err)

	_, err = utils.Decrypt(ciphertext, "0123456789abcdef0123456789abcdee")
	assert.Error(t, err)
}
