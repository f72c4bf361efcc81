package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)

	token, expiresAt, err := signer.Generate("exp-1", "2025/exp-1.csv")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	exportID, relPath, _, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "exp-1", exportID)
	assert.Equal(t, "2025/exp-1.csv", relPath)
}

func TestSignerRejectsTamperedToken(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)

	token, _, err := signer.Generate("exp-1", "2025/exp-1.csv")
	require.NoError(t, err)

	// flip one byte in the signature segment
	tampered := token[:len(token)-1]
	if strings.HasSuffix(token, "a") {
		tampered += "b"
	} else {
		tampered += "a"
	}

	_, _, _, err = signer.Parse(tampered)
	assert.Error(t, err)
}

func TestSignerRejectsWrongSecret(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)
	other := NewSigner("other-secret", time.Hour)

	token, _, err := signer.Generate("exp-1", "2025/exp-1.csv")
	require.NoError(t, err)

	_, _, _, err = other.Parse(token)
	assert.Error(t, err)
}

func TestSignerRejectsExpiredToken(t *testing.T) {
	signer := &Signer{secret: []byte("test-secret"), ttl: -time.Minute}

	token, _, err := signer.Generate("exp-1", "2025/exp-1.csv")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}
