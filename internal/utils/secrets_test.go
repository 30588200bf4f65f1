package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret(32)
	require.NoError(t, err)

	decoded, err := hex.DecodeString(secret)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	other, err := GenerateSecret(32)
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestGenerateJWTSecrets(t *testing.T) {
	access, refresh, err := GenerateJWTSecrets()
	require.NoError(t, err)

	assert.Len(t, access, 64)
	assert.Len(t, refresh, 64)
	assert.NotEqual(t, access, refresh)
}
