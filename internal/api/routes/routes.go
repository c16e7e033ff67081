package routes

import (
	"net/http"

	"skypulse-backend/internal/api/handlers"
	"skypulse-backend/internal/config"
	"skypulse-backend/internal/repository"
	"skypulse-backend/internal/services"
	"skypulse-backend/pkg/fcm"
	"skypulse-backend/pkg/redis"
	"skypulse-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, dispatcher fcm.Dispatcher, redisClient *redis.Client, cfg *config.Config) {
	// Wrong verbs on an existing route must answer 405, not 404
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	// Initialize repositories and services
	snapshotRepo := repository.NewSnapshotRepository(redisClient, cfg.SnapshotTTL)
	notifier := services.NewNotificationService(dispatcher)

	// Initialize handlers
	notificationHandler := handlers.NewNotificationHandler(notifier)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotRepo)
	healthHandler := handlers.NewHealthHandler(redisClient)

	// API routes
	api := router.Group("/api")
	{
		api.POST("/send-test-notification", notificationHandler.SendTestNotification)
		api.POST("/send-device-notification", notificationHandler.SendDeviceNotification)

		api.GET("/snapshot", snapshotHandler.GetSnapshot)
		api.PUT("/snapshot", snapshotHandler.PutSnapshot)

		api.GET("/health", healthHandler.HealthCheck)
	}
}
