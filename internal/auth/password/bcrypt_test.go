package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashIsSaltedAndVerifies(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	h1, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	h2, err := h.Hash("s3cret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, h.Verify("s3cret-pass", h1))
	assert.True(t, h.Verify("s3cret-pass", h2))
}

func TestHasher_VerifyRejects(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("right")
	require.NoError(t, err)

	tests := []struct {
		name  string
		plain string
		hash  string
	}{
		{name: "wrong password", plain: "wrong", hash: hash},
		{name: "empty hash", plain: "right", hash: ""},
		{name: "malformed hash", plain: "right", hash: "$2a$not-a-hash"},
		{name: "plain text stored", plain: "right", hash: "right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.Verify(tt.plain, tt.hash))
		})
	}
}

func TestHasher_TooLong(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
	assert.Equal(t, 12, NewHasher(12).cost)
}
