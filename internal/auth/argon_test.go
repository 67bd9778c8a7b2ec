package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the tests fast.
var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1}

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(testParams)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, hash, "correct horse")
	assert.True(t, h.Verify(hash, "correct horse"))
	assert.False(t, h.Verify(hash, "wrong horse"))
}

func TestHasher_SaltsDiffer(t *testing.T) {
	h := NewHasher(testParams)

	a, err := h.Hash("password123")
	require.NoError(t, err)
	b, err := h.Hash("password123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHasher_RejectsBadInput(t *testing.T) {
	h := NewHasher(testParams)

	_, err := h.Hash("")
	assert.Error(t, err)

	_, err = h.Hash(strings.Repeat("x", maxPasswordLength+1))
	assert.Error(t, err)
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h := NewHasher(testParams)

	tests := []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=1$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
	}
	for _, hash := range tests {
		assert.False(t, h.Verify(hash, "password"), "hash %q", hash)
	}
}

func TestHasher_VerifyUsesEncodedParams(t *testing.T) {
	old := NewHasher(testParams)
	hash, err := old.Hash("password123")
	require.NoError(t, err)

	current := NewHasher(Params{Memory: 2048, Iterations: 2, Parallelism: 1})
	assert.True(t, current.Verify(hash, "password123"))
}

func TestNewHasher_Defaults(t *testing.T) {
	h := NewHasher(Params{})
	assert.Equal(t, DefaultParams, h.params)
}
