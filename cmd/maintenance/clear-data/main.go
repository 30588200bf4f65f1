package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/staya/travel-booking-backend/internal/config"
	"github.com/staya/travel-booking-backend/internal/database"
	"github.com/staya/travel-booking-backend/internal/services"
)

func main() {
	var dbURLFlag string
	var expiredOnly bool
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&expiredOnly, "expired-only", false, "only sweep expired tokens, rate limit records and stale sessions")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	// This avoids having to pass secrets on the command line.
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	// Build minimal database config without loading full app config
	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if expiredOnly {
		runExpiredSweep(db)
		return
	}

	fmt.Println("Connected to database. Truncating tables...")

	truncateSQL := `
TRUNCATE TABLE
    payments,
    bookings,
    login_rate_limits,
    refresh_tokens,
    login_sessions,
    users
RESTART IDENTITY CASCADE;`

	if _, err := db.Exec(truncateSQL); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	fmt.Println("All data cleared successfully (tables truncated, identities reset).")

	// Verify by printing row counts for each table
	tables := []string{
		"payments",
		"bookings",
		"login_rate_limits",
		"refresh_tokens",
		"login_sessions",
		"users",
	}

	fmt.Println("Post-clear row counts:")
	for _, table := range tables {
		var count int64
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			log.Printf("failed to count %s: %v", table, err)
			continue
		}
		fmt.Printf("  %-20s %d\n", table, count)
	}
}

// runExpiredSweep runs the server's scheduled cleanup jobs once, for
// deployments that prefer an external scheduler over the in-process cron
func runExpiredSweep(db database.DB) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{})

	rateLimits := services.NewRateLimitService(db, config.RateLimitConfig{
		MaxEmailAttempts: 5,
		EmailWindow:      15 * time.Minute,
		MaxIPAttempts:    20,
		IPWindow:         60 * time.Minute,
	})

	cronService := services.NewCronService(
		database.NewRefreshTokenRepository(db),
		database.NewSessionRepository(db),
		rateLimits,
		logger,
	)

	fmt.Println("Connected to database. Sweeping expired records...")
	cronService.RunCleanupNow()
	fmt.Println("Expired records swept.")
}
