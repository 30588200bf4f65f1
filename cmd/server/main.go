package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/staya/travel-booking-backend/internal/config"
	"github.com/staya/travel-booking-backend/internal/database"
	"github.com/staya/travel-booking-backend/internal/handlers"
	"github.com/staya/travel-booking-backend/internal/middleware"
	"github.com/staya/travel-booking-backend/internal/services"
	"github.com/staya/travel-booking-backend/pkg/jwt"
	"github.com/staya/travel-booking-backend/pkg/mail"
	"github.com/staya/travel-booking-backend/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting STAYA Travel Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize repositories
	userRepository := database.NewUserRepository(db)
	locationRepository := database.NewLocationRepository(db)
	routeRepository := database.NewRouteRepository(db)
	bookingRepository := database.NewBookingRepository(db)
	paymentRepository := database.NewPaymentRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)
	sessionRepository := database.NewSessionRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	phoneValidator := validator.NewPhoneValidator()
	rateLimitService := services.NewRateLimitService(db, cfg.RateLimit)
	pricingService := services.NewPricingService(logger)
	paystackService := services.NewPaystackService(&cfg.Paystack, logger)
	paymentService := services.NewPaymentService(db, paymentRepository, bookingRepository, paystackService, logger)

	// Background cleanup jobs
	cronService := services.NewCronService(refreshTokenRepository, sessionRepository, rateLimitService, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	defer cronService.Stop()

	// Initialize mailer
	var mailer mail.Mailer
	if cfg.Mail.Mode == "production" {
		logger.Info("Mailer in production mode (SMTP)")
		mailer = mail.NewSMTPMailer(mail.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		}, logger)
	} else {
		logger.Info("Mailer in development mode (emails logged, not sent)")
		mailer = mail.NewDevMailer(logger)
	}

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(
		jwtService,
		phoneValidator,
		rateLimitService,
		userRepository,
		refreshTokenRepository,
		sessionRepository,
		mailer,
		cfg,
		logger,
	)
	locationHandler := handlers.NewLocationHandler(locationRepository, logger)
	routeHandler := handlers.NewRouteHandler(routeRepository, locationRepository, pricingService, logger)
	bookingHandler := handlers.NewBookingHandler(
		bookingRepository,
		routeRepository,
		userRepository,
		phoneValidator,
		mailer,
		logger,
	)
	paymentHandler := handlers.NewPaymentHandler(
		paymentService,
		paystackService,
		paymentRepository,
		userRepository,
		mailer,
		logger,
	)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh-token", authHandler.RefreshToken)
			auth.GET("/verify-email/:token", authHandler.VerifyEmail)
			auth.POST("/resend-verification", authHandler.ResendVerification)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password/:token", authHandler.ResetPassword)

			protected := auth.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService))
			{
				protected.POST("/logout", authHandler.Logout)
				protected.POST("/change-password", authHandler.ChangePassword)
				protected.GET("/me", authHandler.Me)
				protected.GET("/sessions", authHandler.Sessions)
			}
		}

		// Location routes (public)
		locations := v1.Group("/locations")
		{
			locations.GET("", locationHandler.List)
			locations.GET("/state/:state", locationHandler.ByState)
			locations.GET("/nearby/:lat/:lng", locationHandler.Nearby)
			locations.GET("/:id", locationHandler.Get)
		}

		// Route and pricing routes (public)
		routes := v1.Group("/routes")
		{
			routes.GET("", routeHandler.List)
			routes.GET("/search", routeHandler.Search)
			routes.GET("/popular", routeHandler.Popular)
			routes.GET("/from/:locationId", routeHandler.FromLocation)
			routes.GET("/:id", routeHandler.Get)
			routes.POST("/calculate-price", routeHandler.CalculatePrice)
		}

		// Booking routes (verified users only)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService), middleware.RequireVerified())
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("/my-bookings", bookingHandler.MyBookings)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.PUT("/:id", bookingHandler.Update)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
		}

		// Payment routes
		payments := v1.Group("/payments")
		{
			// Webhook is authenticated by its HMAC signature, not a JWT
			payments.POST("/webhook/paystack", paymentHandler.Webhook)

			paymentsProtected := payments.Group("")
			paymentsProtected.Use(middleware.AuthMiddleware(jwtService), middleware.RequireVerified())
			{
				paymentsProtected.POST("/initialize", paymentHandler.Initialize)
				paymentsProtected.GET("/verify/:reference", paymentHandler.Verify)
				paymentsProtected.GET("/my-payments", paymentHandler.MyPayments)
				paymentsProtected.GET("/reference/:reference", paymentHandler.Get)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole("admin"))
		{
			admin.POST("/locations", locationHandler.Create)
			admin.PUT("/locations/:id", locationHandler.Update)
			admin.DELETE("/locations/:id", locationHandler.Delete)

			admin.POST("/routes", routeHandler.Create)
			admin.PUT("/routes/:id", routeHandler.Update)

			admin.GET("/bookings", bookingHandler.List)
			admin.GET("/bookings/stats/overview", bookingHandler.Stats)
			admin.PUT("/bookings/:id/status", bookingHandler.UpdateStatus)

			admin.GET("/payments", paymentHandler.List)
			admin.GET("/payments/stats/overview", paymentHandler.Stats)
			admin.POST("/payments/:id/refund", paymentHandler.Refund)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		// Record authorization presence, never the token itself
		fields["has_auth"] = c.GetHeader("Authorization") != ""

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		if err := db.Ping(); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
