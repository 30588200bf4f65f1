package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staya/travel-booking-backend/internal/models"
)

var userTestColumns = []string{
	"id", "name", "email", "password_hash", "phone", "role", "verified",
	"verification_token", "reset_password_token", "reset_password_expires",
	"last_login_at", "created_at", "updated_at",
}

func TestCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewUserRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		token := "verify-token"
		user := &models.User{
			Name:              "Amina Bello",
			Email:             "Amina@Example.com",
			PasswordHash:      "$2a$12$hash",
			Phone:             "08012345678",
			Role:              models.RoleUser,
			VerificationToken: &token,
		}

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(
				sqlmock.AnyArg(), "Amina Bello", "amina@example.com", "$2a$12$hash",
				"08012345678", models.RoleUser, false, token,
				sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(user)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		user := &models.User{
			Name:  "Amina Bello",
			Email: "amina@example.com",
		}

		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(fmt.Errorf("duplicate key value violates unique constraint"))

		err := repo.Create(user)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "email already registered")

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("Database Error", func(t *testing.T) {
		user := &models.User{Name: "Amina Bello", Email: "amina@example.com"}

		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(user)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

func TestGetUserByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewUserRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
			WithArgs("amina@example.com").
			WillReturnRows(sqlmock.NewRows(userTestColumns).AddRow(
				userID, "Amina Bello", "amina@example.com", "$2a$12$hash",
				"08012345678", "user", true,
				nil, nil, nil, nil, now, now,
			))

		user, err := repo.GetByEmail("Amina@Example.com")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "amina@example.com", user.Email)
		assert.True(t, user.Verified)
		assert.Nil(t, user.VerificationToken)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("User Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByEmail("ghost@example.com")
		assert.Error(t, err)
		assert.Nil(t, user)
		assert.Contains(t, err.Error(), "user not found")

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

func TestMarkVerified(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewUserRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users`).
			WithArgs(sqlmock.AnyArg(), userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkVerified(userID)
		require.NoError(t, err)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("User Not Found", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users`).
			WithArgs(sqlmock.AnyArg(), userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkVerified(userID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "user not found")

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

func TestUpdatePassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewUserRepository(mockDB)

	t.Run("Success Clears Reset Token", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users`).
			WithArgs("$2a$12$newhash", sqlmock.AnyArg(), userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePassword(userID, "$2a$12$newhash")
		require.NoError(t, err)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("User Not Found", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users`).
			WithArgs("$2a$12$newhash", sqlmock.AnyArg(), userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePassword(userID, "$2a$12$newhash")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "user not found")

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

func TestGetUserByResetToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewUserRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()
		expires := now.Add(10 * time.Minute)

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE reset_password_token`).
			WithArgs("reset-token").
			WillReturnRows(sqlmock.NewRows(userTestColumns).AddRow(
				userID, "Amina Bello", "amina@example.com", "$2a$12$hash",
				"08012345678", "user", true,
				nil, "reset-token", expires, nil, now, now,
			))

		user, err := repo.GetByResetToken("reset-token")
		require.NoError(t, err)
		require.NotNil(t, user.ResetPasswordToken)
		assert.Equal(t, "reset-token", *user.ResetPasswordToken)
		assert.True(t, user.CanResetPassword(now))

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("Token Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE reset_password_token`).
			WithArgs("bad-token").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByResetToken("bad-token")
		assert.Error(t, err)
		assert.Nil(t, user)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

// Mock database implementation for testing
type mockDatabase struct {
	db *sql.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in mock")
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in mock")
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Begin() (*sql.Tx, error) {
	return m.db.Begin()
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}
