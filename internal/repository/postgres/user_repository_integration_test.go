//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"crm-usertool/internal/domain"
	"crm-usertool/internal/repository"
)

func setupUsersPostgresContainer(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("crm_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	return db
}

func TestUserRepository_CreateCountAndSetPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := setupUsersPostgresContainer(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	for _, name := range []string{"admin", "Admin2", "a_b", "axb"} {
		user, err := domain.NewAdministrator(name, true)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, user))
		require.Len(t, user.ID, 36)
	}

	count, err := repo.CountByUserNamePrefix(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountByUserNamePrefix(ctx, "a_")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.CountByUserName(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	dup, err := domain.NewAdministrator("admin", false)
	require.NoError(t, err)
	require.ErrorIs(t, repo.Create(ctx, dup), repository.ErrUserExists)

	fetched, err := repo.GetByUserName(ctx, "admin")
	require.NoError(t, err)
	require.NoError(t, repo.SetPassword(ctx, fetched.ID, "hashed", true))

	fetched, err = repo.GetByUserName(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hashed", fetched.UserHash)
	assert.True(t, fetched.SystemGeneratedPassword)
	assert.NotNil(t, fetched.PasswordLastChanged)
	assert.Equal(t, domain.AdministratorTitle, fetched.Title)

	require.ErrorIs(t, repo.SetPassword(ctx, "00000000-0000-0000-0000-000000000000", "x", false), repository.ErrNotFound)

	_, err = repo.GetByUserName(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, fetched.ID))
	_, err = repo.GetByUserName(ctx, "admin")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, fetched.ID), repository.ErrNotFound)
}
