package main

import (
	"context"
	"log"

	"skypulse-backend/internal/api/routes"
	"skypulse-backend/internal/config"
	"skypulse-backend/pkg/fcm"
	"skypulse-backend/pkg/googleauth"
	"skypulse-backend/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize Redis client
	redisClient := redis.NewClient(cfg.Redis)
	defer redisClient.Close()

	healthStatus := redisClient.HealthCheck()
	if healthStatus.IsConnected {
		log.Printf("Redis connected successfully at %s", healthStatus.ConnectionInfo)
	} else {
		log.Printf("Redis connection failed: %s", healthStatus.Error)
	}

	// Build the configured push dispatcher
	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		log.Fatal("Failed to initialize push dispatcher: ", err)
	}
	log.Printf("Push dispatcher initialized (%s) for project %s", cfg.Dispatcher, cfg.Firebase.ProjectID)

	// Setup Gin router
	router := gin.Default()

	// CORS middleware
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	router.Use(cors.New(corsConfig))

	// Setup routes
	routes.SetupRoutes(router, dispatcher, redisClient, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(router.Run(":" + cfg.Port))
}

func buildDispatcher(cfg *config.Config) (fcm.Dispatcher, error) {
	sa, err := googleauth.ParseServiceAccount(cfg.Firebase.ServiceAccountB64)
	if err != nil {
		return nil, err
	}

	if cfg.Dispatcher == config.DispatcherSDK {
		credentials, err := sa.RawJSON()
		if err != nil {
			return nil, err
		}
		return fcm.NewSDKDispatcher(context.Background(), cfg.Firebase.ProjectID, credentials)
	}

	tokens, err := googleauth.NewTokenSource(sa, googleauth.Config{
		TokenURL: cfg.Firebase.TokenURL,
	})
	if err != nil {
		return nil, err
	}

	return fcm.NewRESTDispatcher(fcm.RESTConfig{
		ProjectID: cfg.Firebase.ProjectID,
		Endpoint:  cfg.Firebase.Endpoint,
		Tokens:    tokens,
	})
}
