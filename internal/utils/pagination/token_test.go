package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	// Standard values
	createdAt := time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC)
	token := EncodeToken(createdAt, "pay-123")
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedAt, decodedID, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, createdAt, decodedAt, "Created at time should match after decode")
	assert.Equal(t, "pay-123", decodedID)

	// Non-UTC input comes back as the same instant
	local := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 5*3600))
	decodedLocal, _, err := DecodeToken(EncodeToken(local, "id"))
	assert.NoError(t, err)
	assert.True(t, local.Equal(decodedLocal))

	// IDs containing the separator survive
	_, id, err := DecodeToken(EncodeToken(createdAt, "a|b"))
	assert.NoError(t, err)
	assert.Equal(t, "a|b", id)
}

func TestDecodeTokenError(t *testing.T) {
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	noSeparator := base64.URLEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z"))
	_, _, err = DecodeToken(noSeparator)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	badDate := base64.URLEncoding.EncodeToString([]byte("notadate|pay-1"))
	_, _, err = DecodeToken(badDate)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "created_at parse")
}

func TestAfter(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, After(at.Add(-time.Second), "z", at, "a"), "older rows come after the cursor")
	assert.False(t, After(at.Add(time.Second), "a", at, "z"), "newer rows come before the cursor")
	assert.True(t, After(at, "a", at, "b"), "ties break on id descending")
	assert.False(t, After(at, "b", at, "b"), "the cursor row itself is excluded")
}
