package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestHashToken(t *testing.T) {
	hash := HashToken("my-secret-token")

	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashToken("my-secret-token"))
	assert.NotEqual(t, hash, HashToken("other-token"))
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "abcd"))
}

func TestCheckTokenHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-token"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckTokenHash("admin-token", string(hash)))
	assert.False(t, CheckTokenHash("wrong-token", string(hash)))
	assert.False(t, CheckTokenHash("admin-token", "not-a-bcrypt-hash"))
}

func TestMaskIdentity(t *testing.T) {
	assert.Equal(t, "****5678", MaskIdentity("+5215512345678"))
	assert.Equal(t, "****", MaskIdentity("123"))
	assert.Equal(t, "****", MaskIdentity(""))
}
