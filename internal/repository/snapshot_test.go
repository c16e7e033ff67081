package repository

import (
	"context"
	"testing"
	"time"

	"skypulse-backend/internal/models"
	"skypulse-backend/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	redisClient "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepository(t *testing.T, ttl time.Duration) (*SnapshotRepository, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClientFromRedis(redisClient.NewClient(&redisClient.Options{
		Addr: mr.Addr(),
	}))
	t.Cleanup(func() { client.Close() })

	return NewSnapshotRepository(client, ttl), mr
}

func TestSnapshotRepositorySetAndGet(t *testing.T) {
	repo, _ := setupTestRepository(t, time.Hour)
	ctx := context.Background()

	snapshot := models.WeatherSnapshot{
		City:        "Islamabad",
		Temperature: 31.5,
		Condition:   "Partly cloudy",
		WeatherCode: 2,
		IsDay:       true,
		UpdatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, repo.SetLatest(ctx, snapshot))

	got, err := repo.GetLatest(ctx, "Islamabad")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snapshot.City, got.City)
	assert.Equal(t, snapshot.Temperature, got.Temperature)
	assert.Equal(t, snapshot.Condition, got.Condition)
	assert.True(t, snapshot.UpdatedAt.Equal(got.UpdatedAt))
}

func TestSnapshotRepositoryCityNormalization(t *testing.T) {
	repo, _ := setupTestRepository(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.SetLatest(ctx, models.WeatherSnapshot{
		City:        "North Nazimabad",
		Temperature: 29,
	}))

	// Different casing and spacing resolve to the same entry
	got, err := repo.GetLatest(ctx, "north  NAZIMABAD")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "North Nazimabad", got.City)
}

func TestSnapshotRepositoryMiss(t *testing.T) {
	repo, _ := setupTestRepository(t, time.Hour)

	got, err := repo.GetLatest(context.Background(), "Quetta")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotRepositoryTTL(t *testing.T) {
	repo, mr := setupTestRepository(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.SetLatest(ctx, models.WeatherSnapshot{City: "Lahore"}))

	mr.FastForward(2 * time.Minute)

	got, err := repo.GetLatest(ctx, "Lahore")
	require.NoError(t, err)
	assert.Nil(t, got, "expired snapshot should read as a miss")
}

func TestSnapshotRepositoryStampsUpdatedAt(t *testing.T) {
	repo, _ := setupTestRepository(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.SetLatest(ctx, models.WeatherSnapshot{City: "Karachi"}))

	got, err := repo.GetLatest(ctx, "Karachi")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.UpdatedAt.IsZero())
}
