package models

import (
	"time"

	"github.com/google/uuid"
)

// LoginSession records a successful login and the device it came from
type LoginSession struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	DeviceType string     `json:"device_type" db:"device_type"` // mobile, tablet, desktop
	OS         *string    `json:"os,omitempty" db:"os"`
	Browser    *string    `json:"browser,omitempty" db:"browser"`
	IPAddress  *string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string    `json:"user_agent,omitempty" db:"user_agent"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	LastSeenAt time.Time  `json:"last_seen_at" db:"last_seen_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// RefreshToken stores the hash of an issued refresh token so it can be
// revoked server-side
type RefreshToken struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash string     `json:"-" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsValid reports whether the token can still be used
func (t *RefreshToken) IsValid(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
