package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/staya/travel-booking-backend/internal/models"
)

// scanner interface for QueryRow and Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, name, email, password_hash, phone, role, verified,
	verification_token, reset_password_token, reset_password_expires,
	last_login_at, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create inserts a new user account
func (r *UserRepository) Create(user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (
			id, name, email, password_hash, phone, role, verified,
			verification_token, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(
		query,
		user.ID,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Phone,
		user.Role,
		user.Verified,
		user.VerificationToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("email already registered: %w", err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email address
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := r.scanUser(r.db.QueryRow(query, strings.ToLower(email)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := r.scanUser(r.db.QueryRow(query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return user, nil
}

// GetByVerificationToken retrieves a user by pending verification token
func (r *UserRepository) GetByVerificationToken(token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`

	user, err := r.scanUser(r.db.QueryRow(query, token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return user, nil
}

// GetByResetToken retrieves a user by password reset token
func (r *UserRepository) GetByResetToken(token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_password_token = $1`

	user, err := r.scanUser(r.db.QueryRow(query, token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return user, nil
}

// MarkVerified marks the account verified and clears the verification token
func (r *UserRepository) MarkVerified(userID uuid.UUID) error {
	query := `
		UPDATE users
		SET verified = true, verification_token = NULL, updated_at = $1
		WHERE id = $2
	`

	result, err := r.db.Exec(query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// SetVerificationToken stores a fresh verification token
func (r *UserRepository) SetVerificationToken(userID uuid.UUID, token string) error {
	query := `
		UPDATE users
		SET verification_token = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, token, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// SetResetToken stores a password reset token with its expiry
func (r *UserRepository) SetResetToken(userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_password_token = $1, reset_password_expires = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(query, token, expiresAt, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdatePassword replaces the password hash and clears any reset token
func (r *UserRepository) UpdatePassword(userID uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1,
			reset_password_token = NULL,
			reset_password_expires = NULL,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, passwordHash, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdateLastLogin records the time of a successful login
func (r *UserRepository) UpdateLastLogin(userID uuid.UUID) error {
	query := `
		UPDATE users
		SET last_login_at = $1, updated_at = $1
		WHERE id = $2
	`

	_, err := r.db.Exec(query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// scanUser scans a single user row
func (r *UserRepository) scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var verificationToken sql.NullString
	var resetToken sql.NullString
	var resetExpires sql.NullTime
	var lastLoginAt sql.NullTime

	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Phone,
		&user.Role, &user.Verified,
		&verificationToken, &resetToken, &resetExpires,
		&lastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if verificationToken.Valid {
		user.VerificationToken = &verificationToken.String
	}
	if resetToken.Valid {
		user.ResetPasswordToken = &resetToken.String
	}
	if resetExpires.Valid {
		user.ResetPasswordExpires = &resetExpires.Time
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}

	return user, nil
}
