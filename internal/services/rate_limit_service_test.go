package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staya/travel-booking-backend/internal/config"
	"github.com/staya/travel-booking-backend/internal/database"
)

func setupRateLimitTest(t *testing.T) (*RateLimitService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}
	service := NewRateLimitService(postgresDB, config.RateLimitConfig{
		MaxEmailAttempts: 5,
		EmailWindow:      15 * time.Minute,
		MaxIPAttempts:    20,
		IPWindow:         60 * time.Minute,
	})

	cleanup := func() {
		db.Close()
	}

	return service, mock, cleanup
}

func TestCheckLoginRateLimit_NoAttempts(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "amina@example.com"
	ip := "197.210.10.1"

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_rate_limits").
		WithArgs(email, "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(0, time.Now()))

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_rate_limits").
		WithArgs(ip, "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(0, time.Now()))

	err := service.CheckLoginRateLimit(email, ip)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginRateLimit_EmailExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "amina@example.com"
	ip := "197.210.10.1"
	lastAttempt := time.Now().Add(-5 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_rate_limits").
		WithArgs(email, "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(5, lastAttempt))

	err := service.CheckLoginRateLimit(email, ip)
	assert.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok, "Error should be RateLimitError")
	assert.Equal(t, "email", rateLimitErr.Type)
	assert.True(t, rateLimitErr.RetryAfter.After(time.Now()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginRateLimit_IPExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "amina@example.com"
	ip := "197.210.10.1"
	lastAttempt := time.Now().Add(-10 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_rate_limits").
		WithArgs(email, "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(2, lastAttempt))

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_rate_limits").
		WithArgs(ip, "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(20, lastAttempt))

	err := service.CheckLoginRateLimit(email, ip)
	assert.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok, "Error should be RateLimitError")
	assert.Equal(t, "ip", rateLimitErr.Type)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginAttempt(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "amina@example.com"
	ip := "197.210.10.1"

	mock.ExpectExec("INSERT INTO login_rate_limits").
		WithArgs(email, "email").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec("INSERT INTO login_rate_limits").
		WithArgs(ip, "ip").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := service.RecordLoginAttempt(email, ip)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearLoginAttempts(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "amina@example.com"

	mock.ExpectExec("DELETE FROM login_rate_limits").
		WithArgs(email).
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := service.ClearLoginAttempts(email)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
