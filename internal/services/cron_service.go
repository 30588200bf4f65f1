package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/staya/travel-booking-backend/internal/database"
)

// Sessions idle longer than this are swept by the weekly cleanup job
const staleSessionAge = 30 * 24 * time.Hour

// CronService manages scheduled background jobs
type CronService struct {
	cron          *cron.Cron
	refreshTokens *database.RefreshTokenRepository
	sessions      *database.SessionRepository
	rateLimits    *RateLimitService
	logger        *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(
	refreshTokens *database.RefreshTokenRepository,
	sessions *database.SessionRepository,
	rateLimits *RateLimitService,
	logger *logrus.Logger,
) *CronService {
	return &CronService{
		cron:          cron.New(),
		refreshTokens: refreshTokens,
		sessions:      sessions,
		rateLimits:    rateLimits,
		logger:        logger,
	}
}

// Start schedules and starts all cron jobs
func (s *CronService) Start() error {
	// Cron format: minute hour day month weekday
	if _, err := s.cron.AddFunc("0 * * * *", s.cleanupExpiredTokensJob); err != nil {
		return fmt.Errorf("failed to schedule token cleanup job: %w", err)
	}

	if _, err := s.cron.AddFunc("30 * * * *", s.cleanupRateLimitsJob); err != nil {
		return fmt.Errorf("failed to schedule rate limit cleanup job: %w", err)
	}

	// Weekly on Sunday at 4 AM
	if _, err := s.cron.AddFunc("0 4 * * 0", s.cleanupStaleSessionsJob); err != nil {
		return fmt.Errorf("failed to schedule session cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("Cron service started")

	return nil
}

// Stop stops all cron jobs and waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// cleanupExpiredTokensJob removes refresh tokens past their expiry
func (s *CronService) cleanupExpiredTokensJob() {
	removed, err := s.refreshTokens.CleanupExpired()
	if err != nil {
		s.logger.WithError(err).Error("Failed to cleanup expired refresh tokens")
		return
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Cleaned up expired refresh tokens")
	}
}

// cleanupRateLimitsJob removes login attempt records outside every window
func (s *CronService) cleanupRateLimitsJob() {
	removed, err := s.rateLimits.CleanupExpiredRateLimits()
	if err != nil {
		s.logger.WithError(err).Error("Failed to cleanup rate limit records")
		return
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Cleaned up rate limit records")
	}
}

// cleanupStaleSessionsJob sweeps login sessions idle for over a month
func (s *CronService) cleanupStaleSessionsJob() {
	removed, err := s.sessions.CleanupInactive(staleSessionAge)
	if err != nil {
		s.logger.WithError(err).Error("Failed to cleanup stale sessions")
		return
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Cleaned up stale login sessions")
	}
}

// RunCleanupNow runs every cleanup job immediately. Backs the
// maintenance CLI's -expired-only sweep.
func (s *CronService) RunCleanupNow() {
	s.cleanupExpiredTokensJob()
	s.cleanupRateLimitsJob()
	s.cleanupStaleSessionsJob()
}
