package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devhub/devhub-api/internal/auth"
)

// cheap parameters keep the suite fast; production uses DefaultArgon2Params
func testHasher() *auth.Argon2idHasher {
	return auth.NewArgon2idHasher(auth.Argon2Params{Time: 1, MemoryKiB: 1024, Threads: 1})
}

func TestHashPassword(t *testing.T) {
	hasher := testHasher()

	t.Run("produces PHC argon2id digest", func(t *testing.T) {
		digest, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(digest, "$argon2id$v=19$m=1024,t=1,p=1$"))
	})

	t.Run("same password produces different digests", func(t *testing.T) {
		a, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		b, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := testHasher()
	digest, err := hasher.Hash("correct horse")
	require.NoError(t, err)

	assert.True(t, hasher.Verify(digest, "correct horse"))
	assert.False(t, hasher.Verify(digest, "correct horsE"))
	assert.False(t, hasher.Verify(digest, ""))

	t.Run("verifies digests made with other parameters", func(t *testing.T) {
		other := auth.NewArgon2idHasher(auth.Argon2Params{Time: 2, MemoryKiB: 2048, Threads: 2})
		d, err := other.Hash("pw")
		require.NoError(t, err)
		assert.True(t, hasher.Verify(d, "pw"))
		assert.True(t, hasher.NeedsRehash(d))
		assert.False(t, hasher.NeedsRehash(digest))
	})
}

func TestVerifyMalformedDigest(t *testing.T) {
	hasher := testHasher()

	for name, digest := range map[string]string{
		"empty":            "",
		"plain text":       "not-a-digest",
		"bcrypt":           "$2a$10$N9qo8uLOickgx2ZMRZoMyeIvNq.Uf3hE9tQALNP1Qn9sNp5x5x5x5",
		"argon2i":          "$argon2i$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"bad version":      "$argon2id$vXX$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"other version":    "$argon2id$v=16$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"bad params":       "$argon2id$v=19$invalid$c2FsdHNhbHQ$aGFzaGhhc2g",
		"threads overflow": "$argon2id$v=19$m=1024,t=1,p=256$c2FsdHNhbHQ$aGFzaGhhc2g",
		"zero time":        "$argon2id$v=19$m=1024,t=0,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"huge memory":      "$argon2id$v=19$m=999999999,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"bad salt":         "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaGhhc2g",
		"bad hash":         "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$!!!",
		"empty hash":       "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$",
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, hasher.Verify(digest, "password"))
		})
	}
}
