package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/models"
)

func TestGenerateAPIKey(t *testing.T) {
	plaintext, hash, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(plaintext, models.APIKeyPrefix))
	assert.Len(t, strings.TrimPrefix(plaintext, models.APIKeyPrefix), 43)
	assert.NotContains(t, hash, plaintext)

	other, _, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, other)
}

func TestVerifyAPIKey(t *testing.T) {
	plaintext, hash, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.NoError(t, VerifyAPIKey(hash, plaintext))

	err = VerifyAPIKey(hash, "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	err = VerifyAPIKey(hash, "not-a-key")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	err = VerifyAPIKey(hash, models.APIKeyPrefix+strings.Repeat("x", 43))
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}
