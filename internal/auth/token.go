package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/devhub/devhub-api/internal/domain"
)

const defaultClaimTTL = time.Hour

// Claims describes the JWT payload: sub, iat and exp.
type Claims struct {
	jwt.RegisteredClaims
}

// ClaimTokenStore signs self-contained HS256 tokens. Nothing is stored, so a
// token stays valid until exp; there is no revocation.
type ClaimTokenStore struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

var _ CredentialStore = (*ClaimTokenStore)(nil)

// NewClaimTokenStore builds a store. An empty secret is accepted here and
// reported as ErrSigningSecretMissing on every call.
func NewClaimTokenStore(secret string, ttl time.Duration, logger *zap.Logger) *ClaimTokenStore {
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &ClaimTokenStore{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Named("claim_tokens"),
	}
}

// WithClock returns a copy of the store using now as its time source.
func (s *ClaimTokenStore) WithClock(now func() time.Time) *ClaimTokenStore {
	clone := *s
	clone.now = now
	return &clone
}

// Issue signs claims {sub, iat=now, exp=now+ttl}.
func (s *ClaimTokenStore) Issue(_ context.Context, subjectID string, ttl time.Duration) (*domain.Credential, error) {
	if len(s.secret) == 0 {
		return nil, ErrSigningSecretMissing
	}
	if subjectID == "" {
		return nil, errors.New("subject id required")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	issuedAt := jwt.NewNumericDate(s.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(ttl))
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &domain.Credential{
		SubjectID: subjectID,
		Token:     tokenString,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Parse verifies the signature and expiry. Failures wrap ErrTokenExpired or
// ErrTokenInvalid so they can be told apart in logs.
func (s *ClaimTokenStore) Parse(tokenStr string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrSigningSecretMissing
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Validate collapses every Parse failure into false.
func (s *ClaimTokenStore) Validate(_ context.Context, token string) bool {
	if token == "" {
		return false
	}
	if _, err := s.Parse(token); err != nil {
		switch {
		case errors.Is(err, ErrSigningSecretMissing):
			s.logger.Error("cannot validate token", zap.Error(err))
		case errors.Is(err, ErrTokenExpired):
			s.logger.Debug("rejected expired token")
		default:
			s.logger.Debug("rejected invalid token", zap.Error(err))
		}
		return false
	}
	return true
}
