package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devhub/devhub-api/internal/config"
)

func TestRunMigrationsAppliesInOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS project_users").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS auth_tokens").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, RunMigrations(context.Background(), mock, zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsStopsOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS project_users").WillReturnError(errors.New("permission denied"))

	err = RunMigrations(context.Background(), mock, zap.NewNop())
	assert.ErrorContains(t, err, "0001_project_users.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
	pg.Close()
}

func TestRedisPing(t *testing.T) {
	mini := miniredis.RunT(t)
	r := NewRedis(context.Background(), config.RedisConfig{Addr: mini.Addr()}, zap.NewNop())
	defer r.Close()

	require.NoError(t, r.Ping(context.Background()))
	mini.Close()
	assert.Error(t, r.Ping(context.Background()))

	var unset *Redis
	assert.Error(t, unset.Ping(context.Background()))
}
