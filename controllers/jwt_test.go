package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantTokenUsesConfiguredSecret(t *testing.T) {
	Setup(nil, nil, "segredo-do-config")
	defer Setup(nil, nil, "")

	signed, err := signTenantToken("t1", "ana@acme.test")
	require.NoError(t, err)

	claims, ok := parseTenantToken(signed)
	require.True(t, ok)
	assert.Equal(t, "t1", claims.TenantID)
	assert.Equal(t, "ana@acme.test", claims.Email)

	// token assinado com um segredo não valida com outro
	Setup(nil, nil, "outro-segredo")
	_, ok = parseTenantToken(signed)
	assert.False(t, ok)
}
