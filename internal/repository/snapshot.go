package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"skypulse-backend/internal/models"
	"skypulse-backend/pkg/fcm"
	"skypulse-backend/pkg/redis"

	redisClient "github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "skypulse:snapshot:"

// SnapshotRepository stores the latest weather snapshot per city in Redis.
// The home-screen widget reads it through the snapshot endpoint; entries
// expire so the widget never renders stale weather indefinitely.
type SnapshotRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotRepository(client *redis.Client, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{
		client: client,
		ttl:    ttl,
	}
}

// SetLatest replaces the snapshot for the snapshot's city.
func (r *SnapshotRepository) SetLatest(ctx context.Context, snapshot models.WeatherSnapshot) error {
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now()
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := r.buildKey(snapshot.City)
	if err := r.client.GetClient().Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	return nil
}

// GetLatest returns the snapshot for a city, or nil when none is stored.
func (r *SnapshotRepository) GetLatest(ctx context.Context, city string) (*models.WeatherSnapshot, error) {
	data, err := r.client.GetClient().Get(ctx, r.buildKey(city)).Result()
	if err != nil {
		if err == redisClient.Nil {
			return nil, nil // not an error, just no snapshot yet
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot models.WeatherSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

// City keys share the topic normalization so "North Nazimabad" and
// "north nazimabad" resolve to the same entry.
func (r *SnapshotRepository) buildKey(city string) string {
	return snapshotKeyPrefix + fcm.NormalizeCity(city)
}
