package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	InitJWT("test-secret", "townhall-test")

	token, err := GenerateToken("alice@corp", []string{"employee", "admin"})
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@corp", claims.UserID)
	assert.Equal(t, []string{"employee", "admin"}, claims.Roles)
	assert.Equal(t, "townhall-test", claims.Issuer)
}

func TestValidateToken_Rejects(t *testing.T) {
	InitJWT("test-secret", "")
	token, err := GenerateToken("alice", nil)
	require.NoError(t, err)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)

	_, err = ValidateToken("not-a-token")
	assert.Error(t, err)

	InitJWT("other-secret", "")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)

	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}
