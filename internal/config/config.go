package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Mail configuration
	Mail MailConfig

	// Paystack payment gateway configuration
	Paystack PaystackConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	FrontendURL string // used in email links (verification, password reset)
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// MailConfig holds SMTP email configuration
type MailConfig struct {
	Mode     string // "dev" logs emails instead of sending, "production" sends via SMTP
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// PaystackConfig holds Paystack gateway configuration
type PaystackConfig struct {
	BaseURL     string
	SecretKey   string // sk_test_... or sk_live_... (SECRET - never expose to client)
	PublicKey   string
	CallbackURL string // URL Paystack redirects to after checkout
}

// RateLimitConfig holds login rate limiting configuration
type RateLimitConfig struct {
	MaxEmailAttempts int
	EmailWindow      time.Duration
	MaxIPAttempts    int
	IPWindow         time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost         int
	ResetTokenExpiry   time.Duration
	EnableRequestLog   bool
	VerificationExpiry time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		Mail: MailConfig{
			Mode:     getEnv("MAIL_MODE", "dev"), // "dev" or "production"
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", "STAYA <no-reply@staya.ng>"),
		},
		Paystack: PaystackConfig{
			BaseURL:     getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			SecretKey:   getEnv("PAYSTACK_SECRET_KEY", ""),
			PublicKey:   getEnv("PAYSTACK_PUBLIC_KEY", ""),
			CallbackURL: getEnv("PAYSTACK_CALLBACK_URL", ""),
		},
		RateLimit: RateLimitConfig{
			MaxEmailAttempts: getEnvAsInt("LOGIN_RATE_LIMIT_EMAIL", 5),
			EmailWindow:      time.Duration(getEnvAsInt("LOGIN_RATE_WINDOW_MINUTES", 15)) * time.Minute,
			MaxIPAttempts:    getEnvAsInt("LOGIN_RATE_LIMIT_IP", 20),
			IPWindow:         time.Duration(getEnvAsInt("LOGIN_RATE_IP_WINDOW_MINUTES", 60)) * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "x-paystack-signature"}),
		},
		Security: SecurityConfig{
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			ResetTokenExpiry:   time.Duration(getEnvAsInt("RESET_TOKEN_EXPIRY_MINUTES", 10)) * time.Minute,
			VerificationExpiry: time.Duration(getEnvAsInt("VERIFICATION_EXPIRY_HOURS", 24)) * time.Hour,
			EnableRequestLog:   getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.Server.Environment == "production" {
		if c.Paystack.SecretKey == "" {
			return fmt.Errorf("PAYSTACK_SECRET_KEY is required in production")
		}

		if c.Mail.Mode == "production" {
			if c.Mail.Username == "" {
				return fmt.Errorf("SMTP_USERNAME is required when MAIL_MODE is production")
			}
			if c.Mail.Password == "" {
				return fmt.Errorf("SMTP_PASSWORD is required when MAIL_MODE is production")
			}
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
