package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devhub/devhub-api/internal/auth"
)

func TestClaimTokenStore_IssueAndParse(t *testing.T) {
	store := auth.NewClaimTokenStore("s3cret", 0, zap.NewNop())

	cred, err := store.Issue(context.Background(), "subject-42", 0)
	require.NoError(t, err)
	assert.Empty(t, cred.ID)
	assert.Equal(t, time.Hour, cred.ExpiresAt.Sub(cred.IssuedAt))

	claims, err := store.Parse(cred.Token)
	require.NoError(t, err)
	assert.Equal(t, "subject-42", claims.Subject)
	assert.True(t, cred.ExpiresAt.Equal(claims.ExpiresAt.Time))
	assert.True(t, cred.IssuedAt.Equal(claims.IssuedAt.Time))
	assert.True(t, store.Validate(context.Background(), cred.Token))
}

func TestClaimTokenStore_Tampering(t *testing.T) {
	store := auth.NewClaimTokenStore("s3cret", time.Hour, zap.NewNop())
	cred, err := store.Issue(context.Background(), "subject-42", 0)
	require.NoError(t, err)

	parts := strings.Split(cred.Token, ".")
	require.Len(t, parts, 3)

	for segment := range parts {
		for _, pos := range []int{0, len(parts[segment]) / 2, len(parts[segment]) - 1} {
			mutated := []byte(cred.Token)
			offset := 0
			for i := 0; i < segment; i++ {
				offset += len(parts[i]) + 1
			}
			idx := offset + pos
			if mutated[idx] == 'A' {
				mutated[idx] = 'B'
			} else {
				mutated[idx] = 'A'
			}

			_, err := store.Parse(string(mutated))
			assert.ErrorIs(t, err, auth.ErrTokenInvalid, "segment %d pos %d", segment, pos)
			assert.False(t, store.Validate(context.Background(), string(mutated)))
		}
	}
}

func TestClaimTokenStore_Expiry(t *testing.T) {
	issuedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := auth.NewClaimTokenStore("s3cret", time.Hour, zap.NewNop()).WithClock(func() time.Time { return issuedAt })

	cred, err := store.Issue(context.Background(), "subject-42", time.Minute)
	require.NoError(t, err)

	justBefore := store.WithClock(func() time.Time { return issuedAt.Add(time.Minute - time.Second) })
	assert.True(t, justBefore.Validate(context.Background(), cred.Token))

	atExpiry := store.WithClock(func() time.Time { return issuedAt.Add(time.Minute) })
	_, err = atExpiry.Parse(cred.Token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.NotErrorIs(t, err, auth.ErrTokenInvalid)
	assert.False(t, atExpiry.Validate(context.Background(), cred.Token))
}

func TestClaimTokenStore_RejectsForeignTokens(t *testing.T) {
	store := auth.NewClaimTokenStore("s3cret", time.Hour, zap.NewNop())
	now := time.Now()

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Subject:   "subject-42",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	tests := map[string]string{
		"other secret":  sign(jwt.SigningMethodHS256, []byte("other"), valid),
		"other alg":     sign(jwt.SigningMethodHS512, []byte("s3cret"), valid),
		"none alg":      sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid),
		"missing exp":   sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{Subject: "subject-42", IssuedAt: valid.IssuedAt}),
		"missing sub":   sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{IssuedAt: valid.IssuedAt, ExpiresAt: valid.ExpiresAt}),
		"future iat":    sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{Subject: "s", IssuedAt: jwt.NewNumericDate(now.Add(time.Hour)), ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Hour))}),
		"garbage":       "not.a.token",
		"single part":   "abc",
		"empty payload": "..",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := store.Parse(token)
			assert.ErrorIs(t, err, auth.ErrTokenInvalid)
			assert.False(t, store.Validate(context.Background(), token))
		})
	}
}

func TestClaimTokenStore_MissingSecret(t *testing.T) {
	store := auth.NewClaimTokenStore("", time.Hour, zap.NewNop())

	_, err := store.Issue(context.Background(), "subject-42", 0)
	assert.ErrorIs(t, err, auth.ErrSigningSecretMissing)

	_, err = store.Parse("a.b.c")
	assert.ErrorIs(t, err, auth.ErrSigningSecretMissing)
	assert.False(t, store.Validate(context.Background(), "a.b.c"))
}

func TestClaimTokenStore_HasNoRevocation(t *testing.T) {
	var store auth.CredentialStore = auth.NewClaimTokenStore("s3cret", time.Hour, zap.NewNop())
	_, ok := store.(auth.Revoker)
	assert.False(t, ok)
}
