package main

import (
	"context"
	"log"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/router"
	"github.com/AlexTseluiko/OnScreen-sub002/pkg/config"
	"github.com/AlexTseluiko/OnScreen-sub002/pkg/firebase"
	"github.com/AlexTseluiko/OnScreen-sub002/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.Env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize the optional FCM push channel
	ctx := context.Background()
	fcmClient, err := firebase.InitMessaging(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase messaging: %v", err)
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	scheduler := router.SetupRoutes(e, db.Postgres, db.Mongo, fcmClient, cfg.MongoDBName, logger)

	// Re-arm timers for deliveries that were pending when the process last
	// stopped; past-due ones fire immediately.
	if err := scheduler.Restore(ctx); err != nil {
		log.Fatalf("Failed to restore scheduled notifications: %v", err)
	}
	defer scheduler.Stop()

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
