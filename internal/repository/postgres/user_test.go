package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

var userRowColumns = []string{"id", "email", "password_hash", "name", "phone", "is_rider", "is_passenger", "profile_image", "created_at", "updated_at"}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	user := domain.NewUser("u1", "a@example.com", "hash", "Ann", "555", time.Now())

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err = repo.Create(context.Background(), user)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	now := time.Now()
	user := domain.NewUser("u1", "a@example.com", "hash", "Ann", "555", now)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1", "a@example.com", "hash", "Ann", "555", false, true, nil, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery("^SELECT (.+) FROM users WHERE email").
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "a@example.com", "hash", "Ann", "555", true, true, nil, now, now))

	user, err := repo.GetByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.IsRider)
	assert.Empty(t, user.ProfileImage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectQuery("^SELECT (.+) FROM users WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdateRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectExec("UPDATE users SET is_rider").
		WithArgs(true, true, now, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET is_rider").
		WithArgs(false, true, now, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateRoles(context.Background(), "u1", true, true, now))
	assert.ErrorIs(t, repo.UpdateRoles(context.Background(), "missing", false, true, now), repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
