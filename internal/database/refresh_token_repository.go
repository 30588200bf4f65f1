package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/staya/travel-booking-backend/internal/models"
)

// RefreshTokenRepository stores hashed refresh tokens so they can be
// revoked server-side
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// HashToken returns the SHA-256 hex digest stored in place of the raw token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Store persists the hash of a freshly issued refresh token
func (r *RefreshTokenRepository) Store(userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	_, err := r.db.Exec(query, uuid.New(), userID, HashToken(token), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// Get retrieves a stored token by raw token value
func (r *RefreshTokenRepository) Get(token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	stored := &models.RefreshToken{}
	var revokedAt sql.NullTime

	err := r.db.QueryRow(query, HashToken(token)).Scan(
		&stored.ID, &stored.UserID, &stored.TokenHash,
		&stored.ExpiresAt, &revokedAt, &stored.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("refresh token not found")
		}
		return nil, fmt.Errorf("failed to fetch refresh token: %w", err)
	}

	if revokedAt.Valid {
		stored.RevokedAt = &revokedAt.Time
	}

	return stored, nil
}

// Revoke invalidates a single token
func (r *RefreshTokenRepository) Revoke(token string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`

	_, err := r.db.Exec(query, HashToken(token))
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// RevokeAllForUser invalidates every live token of a user (logout everywhere,
// password change)
func (r *RefreshTokenRepository) RevokeAllForUser(userID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`

	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	return nil
}

// CleanupExpired removes tokens past their expiry
func (r *RefreshTokenRepository) CleanupExpired() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup refresh tokens: %w", err)
	}

	return result.RowsAffected()
}
