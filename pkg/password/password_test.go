package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, h.Verify("hunter2", hash))
	assert.False(t, h.Verify("hunter3", hash))
	assert.False(t, h.Verify("hunter2", "not-a-bcrypt-hash"))
}

func TestHasherClampsCost(t *testing.T) {
	h := NewHasher(99)
	assert.Equal(t, DefaultCost, h.cost)

	h = NewHasher(0)
	assert.Equal(t, DefaultCost, h.cost)
}

func TestHashesAreSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("same-secret")
	require.NoError(t, err)
	second, err := h.Hash("same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-secret", first))
	assert.True(t, h.Verify("same-secret", second))
}
