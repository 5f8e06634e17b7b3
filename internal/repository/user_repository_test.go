package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devhub/devhub-api/internal/domain"
)

func TestUserRepository_GetByUsername(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	columns := []string{"id", "project_name", "username", "password_hash", "created_at", "is_active"}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      *domain.ProjectUser
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id::text, project_name, username, password_hash`).
					WithArgs("portfolio").
					WillReturnRows(pgxmock.NewRows(columns).
						AddRow("u-1", "Portfolio", "portfolio", "$argon2id$digest", created, true))
			},
			want: &domain.ProjectUser{
				ID:           "u-1",
				ProjectName:  "Portfolio",
				Username:     "portfolio",
				PasswordHash: "$argon2id$digest",
				CreatedAt:    created,
				Active:       true,
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id::text, project_name, username, password_hash`).
					WithArgs("portfolio").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: pgx.ErrNoRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setupMock(mock)

			got, err := NewUserRepository(mock).GetByUsername(context.Background(), "portfolio")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Create(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO project_users`).
		WithArgs("Portfolio", "portfolio", "digest").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "is_active"}).AddRow("u-1", created, true))
	mock.ExpectQuery(`INSERT INTO project_users`).
		WithArgs("Portfolio", "portfolio", "digest").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	repo := NewUserRepository(mock)

	user := &domain.ProjectUser{ProjectName: "Portfolio", Username: "portfolio", PasswordHash: "digest"}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, "u-1", user.ID)
	assert.True(t, user.Active)
	assert.Equal(t, created, user.CreatedAt)

	err = repo.Create(context.Background(), &domain.ProjectUser{ProjectName: "Portfolio", Username: "portfolio", PasswordHash: "digest"})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id::text, project_name, username, created_at, is_active`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "project_name", "username", "created_at", "is_active"}).
			AddRow("u-1", "Portfolio", "portfolio", created, true).
			AddRow("u-2", "Blog", "blog", created, false))

	users, err := NewUserRepository(mock).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "blog", users[1].Username)
	assert.False(t, users[1].Active)
	assert.Empty(t, users[0].PasswordHash)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Mutations(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM project_users`).
		WithArgs("portfolio").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`UPDATE project_users SET is_active`).
		WithArgs(false, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(`UPDATE project_users SET password_hash`).
		WithArgs("new-digest", "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(`DELETE FROM project_users`).
		WithArgs("portfolio").
		WillReturnError(errors.New("connection reset"))

	repo := NewUserRepository(mock)
	ctx := context.Background()

	deleted, err := repo.Delete(ctx, "portfolio")
	require.NoError(t, err)
	assert.True(t, deleted)

	updated, err := repo.SetActive(ctx, "missing", false)
	require.NoError(t, err)
	assert.False(t, updated)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, "u-1", "new-digest"), pgx.ErrNoRows)

	_, err = repo.Delete(ctx, "portfolio")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
