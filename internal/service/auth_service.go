package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/devhub/devhub-api/internal/auth"
	"github.com/devhub/devhub-api/internal/domain"
	"github.com/devhub/devhub-api/internal/events"
	apperrors "github.com/devhub/devhub-api/pkg/util"
)

// Client-facing messages for auth outcomes.
const (
	MsgInvalidCredentials = "invalid username or password"
	MsgIssuanceFailed     = "failed to generate auth token"
	MsgInvalidToken       = "invalid or expired token"
	MsgLogoutFailed       = "failed to logout"
)

// ErrSubjectNotFound is returned by SubjectLookup for unknown identifiers.
var ErrSubjectNotFound = errors.New("subject not found")

// SubjectLookup resolves login identifiers to subjects.
type SubjectLookup interface {
	Lookup(ctx context.Context, identifier string) (*domain.ProjectUser, error)
}

// PasswordUpdater persists a rehashed digest for a subject.
type PasswordUpdater interface {
	UpdatePasswordHash(ctx context.Context, subjectID, hash string) error
}

type rehashChecker interface {
	NeedsRehash(digest string) bool
}

// AuthService coordinates login, token validation and logout.
type AuthService struct {
	subjects    SubjectLookup
	hasher      auth.PasswordHasher
	credentials auth.CredentialStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Subjects    SubjectLookup
	Hasher      auth.PasswordHasher
	Credentials auth.CredentialStore
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &AuthService{
		subjects:    deps.Subjects,
		hasher:      deps.Hasher,
		credentials: deps.Credentials,
		dispatcher:  dispatcher,
		logger:      logger.Named("auth"),
	}
}

// Login verifies identifier/password and issues a credential. Unknown
// identifiers, inactive accounts and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.Credential, error) {
	user, err := s.subjects.Lookup(ctx, identifier)
	if errors.Is(err, ErrSubjectNotFound) {
		// burn the same work factor as a real check
		s.hasher.Verify(s.placeholderDigest(), password)
		return nil, s.rejectLogin(ctx, identifier, "unknown identifier")
	}
	if err != nil {
		s.logger.Error("subject lookup failed", zap.Error(err))
		return nil, apperrors.NewStoreError("login unavailable", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, s.rejectLogin(ctx, identifier, "wrong password")
	}
	if !user.Active {
		return nil, s.rejectLogin(ctx, identifier, "inactive account")
	}

	cred, err := s.credentials.Issue(ctx, user.ID, 0)
	if err != nil {
		if errors.Is(err, auth.ErrSigningSecretMissing) {
			s.logger.Error("credential issuance misconfigured", zap.Error(err))
			return nil, apperrors.NewConfigurationError(MsgIssuanceFailed, err)
		}
		s.logger.Error("credential issuance failed", zap.String("subject_id", user.ID), zap.Error(err))
		return nil, apperrors.NewStoreError(MsgIssuanceFailed, err)
	}

	s.upgradeDigest(ctx, user, password)
	s.publish(ctx, events.Event{Type: events.EventLoginSucceeded, SubjectID: user.ID})
	return cred, nil
}

// ValidateToken returns nil for a live credential.
func (s *AuthService) ValidateToken(ctx context.Context, token string) error {
	if !s.credentials.Validate(ctx, token) {
		return apperrors.NewUnauthorized(MsgInvalidToken)
	}
	return nil
}

// Logout revokes token. An unknown token and a store failure produce the same
// error; stores that cannot revoke always fail.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	revoker, ok := s.credentials.(auth.Revoker)
	if !ok {
		s.logger.Warn("logout requested but credential strategy cannot revoke")
		s.publish(ctx, events.Event{Type: events.EventLogoutFailed})
		return apperrors.NewBadRequest(MsgLogoutFailed, nil)
	}
	if !revoker.Revoke(ctx, token) {
		s.publish(ctx, events.Event{Type: events.EventLogoutFailed})
		return apperrors.NewBadRequest(MsgLogoutFailed, nil)
	}
	s.publish(ctx, events.Event{Type: events.EventLoggedOut})
	return nil
}

// SweepExpired removes expired server-side credentials, if the strategy keeps any.
func (s *AuthService) SweepExpired(ctx context.Context) int64 {
	sweeper, ok := s.credentials.(auth.Sweeper)
	if !ok {
		return 0
	}
	count := sweeper.SweepExpired(ctx)
	if count > 0 {
		s.publish(ctx, events.Event{
			Type:    events.EventCredentialsSwept,
			Payload: events.CredentialsSweptPayload{Count: count},
		})
	}
	return count
}

// Credentials exposes the credential store for middleware usage.
func (s *AuthService) Credentials() auth.CredentialStore {
	return s.credentials
}

func (s *AuthService) rejectLogin(ctx context.Context, identifier, reason string) error {
	s.publish(ctx, events.Event{
		Type:    events.EventLoginFailed,
		Payload: events.LoginFailedPayload{Identifier: identifier, Reason: reason},
	})
	return apperrors.NewUnauthorized(MsgInvalidCredentials)
}

func (s *AuthService) upgradeDigest(ctx context.Context, user *domain.ProjectUser, password string) {
	checker, ok := s.hasher.(rehashChecker)
	if !ok || !checker.NeedsRehash(user.PasswordHash) {
		return
	}
	updater, ok := s.subjects.(PasswordUpdater)
	if !ok {
		return
	}
	digest, err := s.hasher.Hash(password)
	if err == nil {
		err = updater.UpdatePasswordHash(ctx, user.ID, digest)
	}
	if err != nil {
		s.logger.Warn("failed to upgrade password digest", zap.String("subject_id", user.ID), zap.Error(err))
	}
}

func (s *AuthService) placeholderDigest() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("placeholder-password")
		if err != nil {
			s.logger.Warn("failed to build placeholder digest", zap.Error(err))
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
