package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/staya/travel-booking-backend/internal/models"
)

// SessionRepository records login sessions with their device fingerprints
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create records a new login session
func (r *SessionRepository) Create(session *models.LoginSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := time.Now()
	session.IsActive = true
	session.LastSeenAt = now
	session.CreatedAt = now

	query := `
		INSERT INTO login_sessions (
			id, user_id, device_type, os, browser, ip_address, user_agent,
			is_active, last_seen_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(
		query,
		session.ID, session.UserID, session.DeviceType,
		session.OS, session.Browser, session.IPAddress, session.UserAgent,
		session.IsActive, session.LastSeenAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetActiveByUser retrieves a user's active sessions, most recent first
func (r *SessionRepository) GetActiveByUser(userID uuid.UUID) ([]models.LoginSession, error) {
	query := `
		SELECT id, user_id, device_type, os, browser, ip_address, user_agent,
			is_active, last_seen_at, ended_at, created_at
		FROM login_sessions
		WHERE user_id = $1 AND is_active = true
		ORDER BY last_seen_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.LoginSession{}
	for rows.Next() {
		var session models.LoginSession
		var os, browser, ipAddress, userAgent sql.NullString
		var endedAt sql.NullTime

		err := rows.Scan(
			&session.ID, &session.UserID, &session.DeviceType,
			&os, &browser, &ipAddress, &userAgent,
			&session.IsActive, &session.LastSeenAt, &endedAt, &session.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if os.Valid {
			session.OS = &os.String
		}
		if browser.Valid {
			session.Browser = &browser.String
		}
		if ipAddress.Valid {
			session.IPAddress = &ipAddress.String
		}
		if userAgent.Valid {
			session.UserAgent = &userAgent.String
		}
		if endedAt.Valid {
			session.EndedAt = &endedAt.Time
		}

		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// Touch refreshes the last activity timestamp of a user's sessions
func (r *SessionRepository) Touch(userID uuid.UUID) error {
	query := `
		UPDATE login_sessions
		SET last_seen_at = NOW()
		WHERE user_id = $1 AND is_active = true
	`

	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to touch sessions: %w", err)
	}

	return nil
}

// EndAllForUser closes all active sessions of a user (logout)
func (r *SessionRepository) EndAllForUser(userID uuid.UUID) error {
	query := `
		UPDATE login_sessions
		SET is_active = false, ended_at = NOW()
		WHERE user_id = $1 AND is_active = true
	`

	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to end sessions: %w", err)
	}

	return nil
}

// CleanupInactive removes ended sessions older than the given duration
func (r *SessionRepository) CleanupInactive(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := r.db.Exec(
		`DELETE FROM login_sessions WHERE is_active = false AND ended_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}

	return result.RowsAffected()
}
