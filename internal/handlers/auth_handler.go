package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/staya/travel-booking-backend/internal/config"
	"github.com/staya/travel-booking-backend/internal/database"
	"github.com/staya/travel-booking-backend/internal/middleware"
	"github.com/staya/travel-booking-backend/internal/models"
	"github.com/staya/travel-booking-backend/internal/services"
	"github.com/staya/travel-booking-backend/internal/utils"
	"github.com/staya/travel-booking-backend/pkg/jwt"
	"github.com/staya/travel-booking-backend/pkg/mail"
	"github.com/staya/travel-booking-backend/pkg/validator"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	jwtService       *jwt.Service
	phoneValidator   *validator.PhoneValidator
	rateLimitService *services.RateLimitService
	users            *database.UserRepository
	refreshTokens    *database.RefreshTokenRepository
	sessions         *database.SessionRepository
	mailer           mail.Mailer
	config           *config.Config
	logger           *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	jwtService *jwt.Service,
	phoneValidator *validator.PhoneValidator,
	rateLimitService *services.RateLimitService,
	users *database.UserRepository,
	refreshTokens *database.RefreshTokenRepository,
	sessions *database.SessionRepository,
	mailer mail.Mailer,
	cfg *config.Config,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		jwtService:       jwtService,
		phoneValidator:   phoneValidator,
		rateLimitService: rateLimitService,
		users:            users,
		refreshTokens:    refreshTokens,
		sessions:         sessions,
		mailer:           mailer,
		config:           cfg,
		logger:           logger,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	phone, err := h.phoneValidator.Validate(req.Phone)
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.config.Security.BcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		respondInternalError(c, "Failed to create account")
		return
	}

	token, err := utils.GenerateSecret(32)
	if err != nil {
		respondInternalError(c, "Failed to create account")
		return
	}

	user := &models.User{
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:      string(hash),
		Phone:             phone,
		Role:              models.RoleUser,
		Verified:          false,
		VerificationToken: &token,
	}

	if err := h.users.Create(user); err != nil {
		if strings.Contains(err.Error(), "already registered") {
			respondError(c, http.StatusConflict, models.ErrCodeDuplicateEmail, "An account with this email already exists")
			return
		}
		h.logger.WithError(err).Error("Failed to create user")
		respondInternalError(c, "Failed to create account")
		return
	}

	// Verification email failures must not roll back registration; the
	// user can request a resend.
	h.sendVerificationEmail(user, token)

	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	respondCreated(c, "Account created. Please check your email to verify your account.", gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	clientIP := utils.GetRealIP(c)

	if err := h.rateLimitService.CheckLoginRateLimit(email, clientIP); err != nil {
		if rateLimitErr, ok := err.(*services.RateLimitError); ok {
			c.JSON(http.StatusTooManyRequests, models.APIResponse{
				Success: false,
				Message: rateLimitErr.Message,
				Error:   models.ErrCodeRateLimited,
			})
			return
		}
		h.logger.WithError(err).Error("Rate limit check failed")
		respondInternalError(c, "Failed to process login")
		return
	}

	user, err := h.users.GetByEmail(email)
	if err != nil {
		h.recordFailedLogin(email, clientIP)
		respondError(c, http.StatusUnauthorized, models.ErrCodeInvalidCredentials, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.recordFailedLogin(email, clientIP)
		respondError(c, http.StatusUnauthorized, models.ErrCodeInvalidCredentials, "Invalid email or password")
		return
	}

	if !user.Verified {
		respondError(c, http.StatusForbidden, models.ErrCodeEmailNotVerified, "Please verify your email address before logging in")
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue tokens")
		respondInternalError(c, "Failed to process login")
		return
	}

	if err := h.rateLimitService.ClearLoginAttempts(email); err != nil {
		h.logger.WithError(err).Warn("Failed to clear login attempts")
	}
	if err := h.users.UpdateLastLogin(user.ID); err != nil {
		h.logger.WithError(err).Warn("Failed to update last login")
	}
	h.recordSession(user, clientIP, c.Request.UserAgent())

	respondSuccess(c, "Login successful", gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// RefreshToken handles POST /api/v1/auth/refresh-token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondError(c, http.StatusUnauthorized, models.ErrCodeInvalidToken, "Invalid or expired refresh token")
		return
	}

	stored, err := h.refreshTokens.Get(req.RefreshToken)
	if err != nil || !stored.IsValid(time.Now()) {
		respondError(c, http.StatusUnauthorized, models.ErrCodeInvalidToken, "Refresh token has been revoked")
		return
	}

	user, err := h.users.GetByID(claims.UserID)
	if err != nil {
		respondError(c, http.StatusUnauthorized, models.ErrCodeInvalidToken, "Account no longer exists")
		return
	}

	// Rotate: the presented token dies with this request
	if err := h.refreshTokens.Revoke(req.RefreshToken); err != nil {
		h.logger.WithError(err).Warn("Failed to revoke rotated refresh token")
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue tokens")
		respondInternalError(c, "Failed to refresh tokens")
		return
	}

	respondSuccess(c, "Tokens refreshed", gin.H{"tokens": tokens})
}

// VerifyEmail handles GET /api/v1/auth/verify-email/:token
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Verification token is required")
		return
	}

	user, err := h.users.GetByVerificationToken(token)
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidToken, "Invalid or expired verification token")
		return
	}

	if err := h.users.MarkVerified(user.ID); err != nil {
		h.logger.WithError(err).Error("Failed to mark user verified")
		respondInternalError(c, "Failed to verify email")
		return
	}

	h.logger.WithField("user_id", user.ID).Info("Email verified")
	respondSuccess(c, "Email verified. You can now log in.", nil)
}

// ResendVerification handles POST /api/v1/auth/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req models.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	// Same response whether or not the account exists, so the endpoint
	// cannot be used to probe for registered emails.
	neutral := "If an unverified account exists for this email, a new verification link has been sent."

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		respondSuccess(c, neutral, nil)
		return
	}

	if user.Verified {
		respondError(c, http.StatusConflict, models.ErrCodeAlreadyVerified, "This account is already verified")
		return
	}

	token, err := utils.GenerateSecret(32)
	if err != nil {
		respondInternalError(c, "Failed to resend verification")
		return
	}

	if err := h.users.SetVerificationToken(user.ID, token); err != nil {
		h.logger.WithError(err).Error("Failed to set verification token")
		respondInternalError(c, "Failed to resend verification")
		return
	}

	h.sendVerificationEmail(user, token)
	respondSuccess(c, neutral, nil)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	neutral := "If an account exists for this email, a password reset link has been sent."

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		respondSuccess(c, neutral, nil)
		return
	}

	token, err := utils.GenerateSecret(32)
	if err != nil {
		respondInternalError(c, "Failed to process request")
		return
	}

	expiresAt := time.Now().Add(h.config.Security.ResetTokenExpiry)
	if err := h.users.SetResetToken(user.ID, token, expiresAt); err != nil {
		h.logger.WithError(err).Error("Failed to set reset token")
		respondInternalError(c, "Failed to process request")
		return
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", h.config.Server.FrontendURL, token)
	subject, body := mail.PasswordResetEmail(user.Name, resetURL)
	if err := h.mailer.Send(user.Email, subject, body); err != nil {
		h.logger.WithError(err).Error("Failed to send password reset email")
	}

	respondSuccess(c, neutral, nil)
}

// ResetPassword handles POST /api/v1/auth/reset-password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Reset token is required")
		return
	}

	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := h.users.GetByResetToken(token)
	if err != nil || !user.CanResetPassword(time.Now()) {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidToken, "Invalid or expired reset token")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.config.Security.BcryptCost)
	if err != nil {
		respondInternalError(c, "Failed to reset password")
		return
	}

	if err := h.users.UpdatePassword(user.ID, string(hash)); err != nil {
		h.logger.WithError(err).Error("Failed to update password")
		respondInternalError(c, "Failed to reset password")
		return
	}

	// Old sessions die with the old password
	if err := h.refreshTokens.RevokeAllForUser(user.ID); err != nil {
		h.logger.WithError(err).Warn("Failed to revoke refresh tokens after reset")
	}

	h.logger.WithField("user_id", user.ID).Info("Password reset")
	respondSuccess(c, "Password reset. You can now log in with your new password.", nil)
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := h.users.GetByID(userCtx.UserID)
	if err != nil {
		respondError(c, http.StatusNotFound, models.ErrCodeNotFound, "Account not found")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		respondError(c, http.StatusUnauthorized, models.ErrCodeInvalidCredentials, "Current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.config.Security.BcryptCost)
	if err != nil {
		respondInternalError(c, "Failed to change password")
		return
	}

	if err := h.users.UpdatePassword(user.ID, string(hash)); err != nil {
		h.logger.WithError(err).Error("Failed to change password")
		respondInternalError(c, "Failed to change password")
		return
	}

	if err := h.refreshTokens.RevokeAllForUser(user.ID); err != nil {
		h.logger.WithError(err).Warn("Failed to revoke refresh tokens after password change")
	}

	respondSuccess(c, "Password changed. Please log in again on other devices.", nil)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		if err := h.refreshTokens.Revoke(req.RefreshToken); err != nil {
			h.logger.WithError(err).Warn("Failed to revoke refresh token on logout")
		}
	}

	if err := h.sessions.EndAllForUser(userCtx.UserID); err != nil {
		h.logger.WithError(err).Warn("Failed to end sessions on logout")
	}

	respondSuccess(c, "Logged out", nil)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	user, err := h.users.GetByID(userCtx.UserID)
	if err != nil {
		respondError(c, http.StatusNotFound, models.ErrCodeNotFound, "Account not found")
		return
	}

	respondSuccess(c, "", user)
}

// Sessions handles GET /api/v1/auth/sessions
func (h *AuthHandler) Sessions(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	sessions, err := h.sessions.GetActiveByUser(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch sessions")
		respondInternalError(c, "Failed to fetch sessions")
		return
	}

	respondSuccess(c, "", sessions)
}

// issueTokens generates a token pair and stores the refresh token hash
func (h *AuthHandler) issueTokens(user *models.User) (*models.TokenPair, error) {
	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role), user.Verified)
	if err != nil {
		return nil, err
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(h.jwtService.RefreshTokenExpiry())
	if err := h.refreshTokens.Store(user.ID, refreshToken, expiresAt); err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(h.jwtService.AccessTokenExpiry().Seconds()),
	}, nil
}

// recordFailedLogin counts the attempt against both email and IP windows
func (h *AuthHandler) recordFailedLogin(email, ip string) {
	if err := h.rateLimitService.RecordLoginAttempt(email, ip); err != nil {
		h.logger.WithError(err).Warn("Failed to record login attempt")
	}
}

// recordSession stores the device fingerprint of a successful login
func (h *AuthHandler) recordSession(user *models.User, clientIP, userAgent string) {
	device := utils.ParseUserAgent(userAgent)

	session := &models.LoginSession{
		UserID:     user.ID,
		DeviceType: device.DeviceType,
	}
	if device.OS != "" {
		session.OS = &device.OS
	}
	if device.Browser != "" {
		session.Browser = &device.Browser
	}
	if clientIP != "" {
		session.IPAddress = &clientIP
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}

	if err := h.sessions.Create(session); err != nil {
		h.logger.WithError(err).Warn("Failed to record login session")
	}
}

// sendVerificationEmail delivers the verification link, logging failures
func (h *AuthHandler) sendVerificationEmail(user *models.User, token string) {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", h.config.Server.FrontendURL, token)
	subject, body := mail.VerificationEmail(user.Name, verifyURL)
	if err := h.mailer.Send(user.Email, subject, body); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to send verification email")
	}
}
