package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"skypulse-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// Client wraps the go-redis client with config-driven construction and a
// health check used by the /api/health endpoint.
type Client struct {
	client *redis.Client
	config config.RedisConfig
}

type HealthStatus struct {
	IsConnected    bool          `json:"isConnected"`
	LastPing       time.Time     `json:"lastPing"`
	ResponseTime   time.Duration `json:"responseTime"`
	ConnectionInfo string        `json:"connectionInfo"`
	Error          string        `json:"error,omitempty"`
}

// NewClient connects using REDIS_URL when set, falling back to host:port.
func NewClient(cfg config.RedisConfig) *Client {
	var rdb *redis.Client

	if cfg.URL != "" {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			log.Printf("Failed to parse Redis URL: %v, falling back to host:port", err)
		} else {
			rdb = redis.NewClient(opt)
		}
	}

	if rdb == nil {
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	return &Client{client: rdb, config: cfg}
}

// NewClientFromRedis wraps an existing go-redis client; tests use this
// with miniredis.
func NewClientFromRedis(rdb *redis.Client) *Client {
	return &Client{client: rdb}
}

func (c *Client) GetClient() *redis.Client {
	return c.client
}

// HealthCheck pings Redis with a short deadline and reports the result.
func (c *Client) HealthCheck() HealthStatus {
	status := HealthStatus{
		ConnectionInfo: fmt.Sprintf("%s:%s", c.config.Host, c.config.Port),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := c.client.Ping(ctx).Err()
	status.ResponseTime = time.Since(start)
	status.LastPing = time.Now()

	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.IsConnected = true
	return status
}

func (c *Client) Close() error {
	return c.client.Close()
}
