package router

import (
	"log"

	"firebase.google.com/go/v4/messaging"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/handlers"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/middleware"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/notify"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/repositories"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/ws"
	"github.com/AlexTseluiko/OnScreen-sub002/pkg/firebase"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes wires repositories, the connection hub, the dispatcher and the
// scheduler, and registers all routes. The returned scheduler is handed back
// so main can restore pending timers and stop them at shutdown.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, fcmClient *messaging.Client, mongoDBName string, logger zerolog.Logger) *notify.Scheduler {
	// AutoMigrate PostgreSQL models
	if err := pgdb.AutoMigrate(&models.ScheduledNotification{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	notificationRepo := repositories.NewMongoNotificationRepository(mgClient.Database(mongoDBName))
	scheduledRepo := repositories.NewPostgresScheduledNotificationRepository(pgdb)

	// --- Connection registry and delivery channels ---
	hub := ws.NewHub(logger)
	pushers := []notify.Pusher{hub}
	if fcmClient != nil {
		pushers = append(pushers, firebase.NewPusher(fcmClient))
	}

	dispatcher := notify.NewDispatcher(notificationRepo, logger, pushers...)
	scheduler := notify.NewScheduler(scheduledRepo, dispatcher, logger)

	// --- WebSocket endpoint (authenticates over the socket) ---
	wsHandler := ws.NewHandler(hub, logger)
	wsHandler.RegisterRoutes(e)
	log.Println("WebSocket routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Scheduled notification routes
	scheduleHandler := handlers.NewScheduleHandler(scheduler, scheduledRepo)
	scheduleHandler.RegisterScheduleRoutes(api)
	log.Println("Scheduled notification routes configured.")

	// Broadcast routes (privileged)
	adminAPI := e.Group("/api/v1")
	adminAPI.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole(models.RoleAdmin))
	broadcastHandler := handlers.NewBroadcastHandler(dispatcher, hub)
	broadcastHandler.RegisterBroadcastRoutes(adminAPI)
	log.Println("Broadcast routes configured.")

	log.Println("All routes configured.")
	return scheduler
}
