package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/devhub/devhub-api/internal/auth"
	"github.com/devhub/devhub-api/internal/domain"
	"github.com/devhub/devhub-api/internal/events"
	"github.com/devhub/devhub-api/internal/repository"
	apperrors "github.com/devhub/devhub-api/pkg/util"
)

// CreateProjectUserInput carries a registration request. The password is
// ciphertext produced with the service public key.
type CreateProjectUserInput struct {
	ProjectName       string
	Username          string
	EncryptedPassword string
}

// ProjectUserService manages the accounts that may log in.
type ProjectUserService struct {
	users      repository.UserRepository
	transport  *TransportService
	hasher     auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

var (
	_ SubjectLookup   = (*ProjectUserService)(nil)
	_ PasswordUpdater = (*ProjectUserService)(nil)
)

// NewProjectUserService constructs the service.
func NewProjectUserService(
	users repository.UserRepository,
	transport *TransportService,
	hasher auth.PasswordHasher,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *ProjectUserService {
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &ProjectUserService{
		users:      users,
		transport:  transport,
		hasher:     hasher,
		dispatcher: dispatcher,
		logger:     logger.Named("project_users"),
	}
}

// Lookup resolves a username, mapping absence to ErrSubjectNotFound.
func (s *ProjectUserService) Lookup(ctx context.Context, username string) (*domain.ProjectUser, error) {
	if username == "" {
		return nil, ErrSubjectNotFound
	}
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Validate reports whether password matches the stored digest of an active user.
func (s *ProjectUserService) Validate(ctx context.Context, username, password string) bool {
	user, err := s.Lookup(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrSubjectNotFound) {
			s.logger.Error("user lookup failed", zap.Error(err))
		}
		return false
	}
	return user.Active && s.hasher.Verify(user.PasswordHash, password)
}

// Create decrypts the submitted password, hashes it and persists the user.
func (s *ProjectUserService) Create(ctx context.Context, input CreateProjectUserInput) (*domain.ProjectUser, error) {
	projectName := strings.TrimSpace(input.ProjectName)
	username := strings.TrimSpace(input.Username)
	if projectName == "" || username == "" {
		return nil, apperrors.NewValidationError("project_name and username are required", nil)
	}

	password, err := s.transport.DecryptSecret(input.EncryptedPassword)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if errors.Is(err, auth.ErrEmptyPassword) {
		return nil, apperrors.NewValidationError("password must not be empty", nil)
	}
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.ProjectUser{
		ProjectName:  projectName,
		Username:     username,
		PasswordHash: digest,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperrors.NewConflict("project user already exists", map[string]any{"username": username})
		}
		s.logger.Error("failed to create project user", zap.Error(err))
		return nil, apperrors.NewStoreError("failed to create project user", err)
	}

	s.logger.Info("project user created", zap.String("user_id", user.ID), zap.String("project", projectName))
	if err := s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventProjectUserCreated,
		SubjectID: user.ID,
		Payload:   events.ProjectUserCreatedPayload{ProjectName: projectName, Username: username},
	}); err != nil {
		s.logger.Warn("event handler failed", zap.Error(err))
	}
	return user, nil
}

// List returns every project user. Digests are not loaded.
func (s *ProjectUserService) List(ctx context.Context) ([]domain.ProjectUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to list project users", err)
	}
	return users, nil
}

// Get returns a single user by username.
func (s *ProjectUserService) Get(ctx context.Context, username string) (*domain.ProjectUser, error) {
	user, err := s.Lookup(ctx, username)
	if errors.Is(err, ErrSubjectNotFound) {
		return nil, apperrors.NewNotFound("project user", map[string]any{"username": username})
	}
	if err != nil {
		return nil, apperrors.NewStoreError("failed to load project user", err)
	}
	return user, nil
}

// Delete removes a user; its credentials cascade.
func (s *ProjectUserService) Delete(ctx context.Context, username string) error {
	deleted, err := s.users.Delete(ctx, username)
	if err != nil {
		return apperrors.NewStoreError("failed to delete project user", err)
	}
	if !deleted {
		return apperrors.NewNotFound("project user", map[string]any{"username": username})
	}
	return nil
}

func (s *ProjectUserService) Activate(ctx context.Context, username string) error {
	return s.setActive(ctx, username, true)
}

func (s *ProjectUserService) Deactivate(ctx context.Context, username string) error {
	return s.setActive(ctx, username, false)
}

// UpdatePasswordHash replaces the stored digest after a parameter upgrade.
func (s *ProjectUserService) UpdatePasswordHash(ctx context.Context, subjectID, hash string) error {
	return s.users.UpdatePasswordHash(ctx, subjectID, hash)
}

func (s *ProjectUserService) setActive(ctx context.Context, username string, active bool) error {
	updated, err := s.users.SetActive(ctx, username, active)
	if err != nil {
		return apperrors.NewStoreError("failed to update project user", err)
	}
	if !updated {
		return apperrors.NewNotFound("project user", map[string]any{"username": username})
	}
	s.logger.Info("project user status changed", zap.String("username", username), zap.Bool("active", active))
	return nil
}
