package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Dispatcher selection values for DISPATCHER.
const (
	DispatcherSDK  = "sdk"
	DispatcherREST = "rest"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	Dispatcher     string
	Firebase       FirebaseConfig
	Redis          RedisConfig
	SnapshotTTL    time.Duration
}

// FirebaseConfig carries the push-provider settings. ServiceAccountB64 is
// the base64-encoded service-account JSON from the secret store; Endpoint
// and TokenURL are overridable for tests.
type FirebaseConfig struct {
	ProjectID         string
	ServiceAccountB64 string
	Endpoint          string
	TokenURL          string
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

func Load() *Config {
	// .env is optional; in deployment everything comes from the environment
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	if projectID == "" {
		log.Fatal("FIREBASE_PROJECT_ID environment variable is not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dispatcher := os.Getenv("DISPATCHER")
	if dispatcher == "" {
		dispatcher = DispatcherREST
	}
	if dispatcher != DispatcherSDK && dispatcher != DispatcherREST {
		log.Fatalf("DISPATCHER must be %q or %q, got %q", DispatcherSDK, DispatcherREST, dispatcher)
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}

	snapshotTTL := 30 * time.Minute
	if ttlStr := os.Getenv("SNAPSHOT_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			log.Fatalf("Invalid SNAPSHOT_TTL: %v", err)
		}
		snapshotTTL = ttl
	}

	return &Config{
		Port:           port,
		AllowedOrigins: splitAndTrim(allowedOrigins),
		Dispatcher:     dispatcher,
		Firebase: FirebaseConfig{
			ProjectID:         projectID,
			ServiceAccountB64: os.Getenv("FIREBASE_SERVICE_ACCOUNT_B64"),
			Endpoint:          os.Getenv("FCM_ENDPOINT"),
			TokenURL:          os.Getenv("OAUTH_TOKEN_URL"),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Host:     getEnvDefault("REDIS_HOST", "localhost"),
			Port:     getEnvDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		SnapshotTTL: snapshotTTL,
	}
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
