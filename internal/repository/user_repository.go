package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/devhub/devhub-api/internal/domain"
)

// UserRepository defines persistence access for project users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.ProjectUser) error
	GetByUsername(ctx context.Context, username string) (*domain.ProjectUser, error)
	List(ctx context.Context) ([]domain.ProjectUser, error)
	Delete(ctx context.Context, username string) (bool, error)
	SetActive(ctx context.Context, username string, active bool) (bool, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.ProjectUser) error {
	const query = `
        INSERT INTO project_users (project_name, username, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id::text, created_at, is_active`

	err := r.db.QueryRow(ctx, query,
		user.ProjectName,
		user.Username,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.Active)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.ProjectUser, error) {
	const query = `
        SELECT id::text, project_name, username, password_hash, created_at, is_active
        FROM project_users WHERE username=$1`

	var user domain.ProjectUser
	if err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.ProjectName,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.Active,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.ProjectUser, error) {
	const query = `
        SELECT id::text, project_name, username, created_at, is_active
        FROM project_users ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.ProjectUser, 0)
	for rows.Next() {
		var user domain.ProjectUser
		if err := rows.Scan(
			&user.ID,
			&user.ProjectName,
			&user.Username,
			&user.CreatedAt,
			&user.Active,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, username string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM project_users WHERE username=$1`, username)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) SetActive(ctx context.Context, username string, active bool) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE project_users SET is_active=$1 WHERE username=$2`, active, username)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE project_users SET password_hash=$1 WHERE id=$2`, hash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
