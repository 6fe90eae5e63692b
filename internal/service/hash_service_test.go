package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService_RoundTrip(t *testing.T) {
	svc := NewArgon2HashService()

	for _, pw := range []string{"SecureP@ssw0rd!", strings.Repeat("a", 1000), "pässwörd"} {
		hash, err := svc.Hash(pw)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))

		ok, err := svc.Verify(pw, hash)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.Verify(pw+"x", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestArgon2HashService_SaltedPerCall(t *testing.T) {
	svc := NewArgon2HashService()

	h1, err := svc.Hash("same-password")
	require.NoError(t, err)
	h2, err := svc.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestArgon2HashService_HonoursStoredParams(t *testing.T) {
	weak := &Argon2HashService{params: argon2Params{memory: 8 * 1024, passes: 2, threads: 1, keyLen: 16}}
	hash, err := weak.Hash("legacy")
	require.NoError(t, err)
	assert.Contains(t, hash, "m=8192,t=2,p=1")

	ok, err := NewArgon2HashService().Verify("legacy", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2HashService_Malformed(t *testing.T) {
	svc := NewArgon2HashService()

	for name, hash := range map[string]string{
		"garbage":         "not-a-valid-hash",
		"wrong algorithm": "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"wrong version":   "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"bad params":      "$argon2id$v=19$m=x,t=1,p=4$c2FsdA$aGFzaA",
		"bad salt":        "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
		"empty key":       "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify("password", hash)
			assert.ErrorIs(t, err, errMalformedHash)
		})
	}
}
