package repository

import (
	"context"
	"time"

	"github.com/devhub/devhub-api/internal/domain"
)

// CredentialRepository persists opaque credentials keyed by token. Expiry is
// always evaluated against the now supplied by the caller.
type CredentialRepository interface {
	Create(ctx context.Context, cred *domain.Credential) error
	Exists(ctx context.Context, token string, now time.Time) (bool, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type credentialRepository struct {
	db DBTX
}

// NewCredentialRepository returns a Postgres-backed implementation.
func NewCredentialRepository(db DBTX) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	const query = `
        INSERT INTO auth_tokens (subject_id, token, issued_at, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id::text`

	err := r.db.QueryRow(ctx, query,
		cred.SubjectID,
		cred.Token,
		cred.IssuedAt,
		cred.ExpiresAt,
	).Scan(&cred.ID)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ErrDuplicateToken
	case isForeignKeyViolation(err):
		return ErrUnknownSubject
	default:
		return err
	}
}

func (r *credentialRepository) Exists(ctx context.Context, token string, now time.Time) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM auth_tokens WHERE token=$1 AND expires_at > $2
        )`

	var exists bool
	if err := r.db.QueryRow(ctx, query, token, now).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *credentialRepository) Delete(ctx context.Context, token string) (bool, error) {
	const query = `DELETE FROM auth_tokens WHERE token=$1`

	cmd, err := r.db.Exec(ctx, query, token)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *credentialRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM auth_tokens WHERE expires_at <= $1`

	cmd, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
