package keycache

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDerive_KnownVector checks the HMAC chain against AWS's published
// "Examples of Derived Signing Keys" for SigV4:
// secret=wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY, date=20150830,
// region=us-east-1, service=iam.
func TestDerive_KnownVector(t *testing.T) {
	key := Derive("wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY", "20150830", "us-east-1", "iam")

	want, err := hex.DecodeString("c4afb1cc5771d871763a393e44b703571b55cc28424d1a5e86da6ed3c154a4b")
	require.NoError(t, err)

	assert.Equal(t, want, key)
}

func TestDeriveOrGet_CachesIdenticalInputs(t *testing.T) {
	ctx := context.Background()

	k1, err := DeriveOrGet(ctx, "secret", "20240101", "us-east-1", "transcribe")
	require.NoError(t, err)

	k2, err := DeriveOrGet(ctx, "secret", "20240101", "us-east-1", "transcribe")
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Equal(t, Derive("secret", "20240101", "us-east-1", "transcribe"), k1)
}

func TestDeriveOrGet_DifferentInputsDifferentKeys(t *testing.T) {
	ctx := context.Background()

	k1, err := DeriveOrGet(ctx, "secret-a", "20240101", "us-east-1", "transcribe")
	require.NoError(t, err)

	k2, err := DeriveOrGet(ctx, "secret-b", "20240101", "us-east-1", "transcribe")
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}
