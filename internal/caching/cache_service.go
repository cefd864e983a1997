package caching

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"motormart/internal/models"

	"github.com/redis/go-redis/v9"
)

const carListKey = "cars:list:all"

// CacheService caches the unfiltered car listing backing the admin page.
// Writers invalidate it so subsequent reads are fresh.
type CacheService interface {
	GetCarList(ctx context.Context) ([]*models.Car, error)
	SetCarList(ctx context.Context, cars []*models.Car, ttl time.Duration) error
	InvalidateCarList(ctx context.Context) error
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as a bare host:port.
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "rediss://"), "redis://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetCarList(ctx context.Context) ([]*models.Car, error) {
	data, err := r.client.Get(ctx, carListKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cars []*models.Car
	if err := json.Unmarshal([]byte(data), &cars); err != nil {
		// Corrupt entry; drop it and fall through to the database.
		r.client.Del(ctx, carListKey)
		return nil, nil
	}
	return cars, nil
}

func (r *redisCacheService) SetCarList(ctx context.Context, cars []*models.Car, ttl time.Duration) error {
	if cars == nil {
		// nil marshals as null, which reads back as a cache miss.
		cars = []*models.Car{}
	}
	data, err := json.Marshal(cars)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, carListKey, data, ttl).Err()
}

func (r *redisCacheService) InvalidateCarList(ctx context.Context) error {
	return r.client.Del(ctx, carListKey).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
