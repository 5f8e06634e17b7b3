package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devhub/devhub-api/internal/domain"
	"github.com/devhub/devhub-api/internal/repository"
)

const (
	defaultOpaqueTTL    = 24 * time.Hour
	defaultStoreTimeout = 3 * time.Second
	maxIssueAttempts    = 3
)

// OpaqueTokenStore issues random server-tracked tokens. Every repository call
// runs under its own deadline; exceeding it counts as a store failure.
type OpaqueTokenStore struct {
	repo     repository.CredentialRepository
	ttl      time.Duration
	timeout  time.Duration
	now      func() time.Time
	newToken func() string
	logger   *zap.Logger
}

var (
	_ CredentialStore = (*OpaqueTokenStore)(nil)
	_ Revoker         = (*OpaqueTokenStore)(nil)
	_ Sweeper         = (*OpaqueTokenStore)(nil)
)

// OpaqueOption customizes an OpaqueTokenStore.
type OpaqueOption func(*OpaqueTokenStore)

// WithDefaultTTL overrides the 24h default lifetime.
func WithDefaultTTL(ttl time.Duration) OpaqueOption {
	return func(s *OpaqueTokenStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithStoreTimeout bounds each repository call.
func WithStoreTimeout(timeout time.Duration) OpaqueOption {
	return func(s *OpaqueTokenStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) OpaqueOption {
	return func(s *OpaqueTokenStore) { s.now = now }
}

// WithTokenGenerator replaces the UUIDv4 generator.
func WithTokenGenerator(gen func() string) OpaqueOption {
	return func(s *OpaqueTokenStore) { s.newToken = gen }
}

// NewOpaqueTokenStore builds the store on top of a credential repository.
func NewOpaqueTokenStore(repo repository.CredentialRepository, logger *zap.Logger, opts ...OpaqueOption) *OpaqueTokenStore {
	s := &OpaqueTokenStore{
		repo:     repo,
		ttl:      defaultOpaqueTTL,
		timeout:  defaultStoreTimeout,
		now:      time.Now,
		newToken: uuid.NewString,
		logger:   logger.Named("opaque_tokens"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue persists a new credential for subjectID. Concurrent issuance for the
// same subject is allowed; only the token itself is unique.
func (s *OpaqueTokenStore) Issue(ctx context.Context, subjectID string, ttl time.Duration) (*domain.Credential, error) {
	if subjectID == "" {
		return nil, errors.New("subject id required")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		now := s.now()
		cred := &domain.Credential{
			SubjectID: subjectID,
			Token:     s.newToken(),
			IssuedAt:  now,
			ExpiresAt: now.Add(ttl),
		}

		err := s.withTimeout(ctx, func(ctx context.Context) error {
			return s.repo.Create(ctx, cred)
		})
		if err == nil {
			return cred, nil
		}
		lastErr = err
		if !errors.Is(err, repository.ErrDuplicateToken) {
			break
		}
		s.logger.Warn("token collision; regenerating", zap.Int("attempt", attempt+1))
	}

	s.logger.Error("failed to issue credential", zap.String("subject_id", subjectID), zap.Error(lastErr))
	return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, lastErr)
}

// Validate is true iff the token exists and has not expired. It never mutates state.
func (s *OpaqueTokenStore) Validate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	var ok bool
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		ok, err = s.repo.Exists(ctx, token, s.now())
		return err
	})
	if err != nil {
		s.logger.Error("failed to validate credential", zap.Error(err))
		return false
	}
	return ok
}

// Revoke deletes the credential. Revoking twice returns false the second time.
func (s *OpaqueTokenStore) Revoke(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	var deleted bool
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.repo.Delete(ctx, token)
		return err
	})
	if err != nil {
		s.logger.Error("failed to revoke credential", zap.Error(err))
		return false
	}
	return deleted
}

// SweepExpired removes every credential with expires_at <= now and returns
// how many were removed, or zero on store failure.
func (s *OpaqueTokenStore) SweepExpired(ctx context.Context) int64 {
	var count int64
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.repo.DeleteExpired(ctx, s.now())
		return err
	})
	if err != nil {
		s.logger.Error("failed to sweep expired credentials", zap.Error(err))
		return 0
	}
	return count
}

func (s *OpaqueTokenStore) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}
