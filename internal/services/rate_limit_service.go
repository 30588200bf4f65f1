package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/staya/travel-booking-backend/internal/config"
	"github.com/staya/travel-booking-backend/internal/database"
)

// RateLimitService throttles login attempts per email and per IP. The
// counters live in the database so every instance behind the load
// balancer sees the same window.
type RateLimitService struct {
	db  database.DB
	cfg config.RateLimitConfig
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, cfg config.RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:  db,
		cfg: cfg,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckLoginRateLimit checks if an email or IP has exceeded its window
func (s *RateLimitService) CheckLoginRateLimit(email, ip string) error {
	if email != "" {
		count, lastAttempt, err := s.getAttemptCount(email, "email", s.cfg.EmailWindow)
		if err != nil {
			return fmt.Errorf("failed to check email rate limit: %w", err)
		}

		if count >= s.cfg.MaxEmailAttempts {
			retryAfter := lastAttempt.Add(s.cfg.EmailWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many login attempts for this account. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "email",
			}
		}
	}

	if ip != "" {
		count, lastAttempt, err := s.getAttemptCount(ip, "ip", s.cfg.IPWindow)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}

		if count >= s.cfg.MaxIPAttempts {
			retryAfter := lastAttempt.Add(s.cfg.IPWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many login attempts from this address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// getAttemptCount gets the number of attempts within the time window
func (s *RateLimitService) getAttemptCount(identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM login_rate_limits
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var lastAttempt time.Time

	err := s.db.QueryRow(query, identifier, identifierType, windowStart).Scan(&count, &lastAttempt)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastAttempt, nil
}

// RecordLoginAttempt records a failed login attempt for rate limiting
func (s *RateLimitService) RecordLoginAttempt(email, ip string) error {
	if email != "" {
		if err := s.recordAttempt(email, "email"); err != nil {
			return fmt.Errorf("failed to record email attempt: %w", err)
		}
	}

	if ip != "" {
		if err := s.recordAttempt(ip, "ip"); err != nil {
			return fmt.Errorf("failed to record IP attempt: %w", err)
		}
	}

	return nil
}

// recordAttempt inserts a rate limit record
func (s *RateLimitService) recordAttempt(identifier, identifierType string) error {
	query := `
		INSERT INTO login_rate_limits (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.Exec(query, identifier, identifierType)
	return err
}

// ClearLoginAttempts drops the counters for an email after a successful
// login so earlier failures stop counting against the account
func (s *RateLimitService) ClearLoginAttempts(email string) error {
	query := `
		DELETE FROM login_rate_limits
		WHERE identifier = $1 AND identifier_type = 'email'
	`

	_, err := s.db.Exec(query, email)
	if err != nil {
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}

	return nil
}

// CleanupExpiredRateLimits removes records older than the longest window
func (s *RateLimitService) CleanupExpiredRateLimits() (int64, error) {
	maxWindow := s.cfg.IPWindow
	if s.cfg.EmailWindow > maxWindow {
		maxWindow = s.cfg.EmailWindow
	}

	cutoffTime := time.Now().Add(-maxWindow)

	result, err := s.db.Exec(`DELETE FROM login_rate_limits WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limits: %w", err)
	}

	return result.RowsAffected()
}
