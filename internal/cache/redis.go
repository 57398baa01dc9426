package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/flightres/config"
	"github.com/Domenick1991/flightres/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, searchTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		searchTTL: searchTTL,
	}
}

func (c *RedisCache) GetSearch(ctx context.Context, date domain.FlightDate, origin, dest string) ([]domain.Itinerary, error) {
	data, err := c.client.Get(ctx, searchKey(date, origin, dest)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var itineraries []domain.Itinerary
	if err := json.Unmarshal(data, &itineraries); err != nil {
		return nil, err
	}
	return itineraries, nil
}

func (c *RedisCache) SetSearch(ctx context.Context, date domain.FlightDate, origin, dest string, itineraries []domain.Itinerary) error {
	payload, err := json.Marshal(itineraries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, searchKey(date, origin, dest), payload, c.searchTTL).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func searchKey(date domain.FlightDate, origin, dest string) string {
	return fmt.Sprintf("cache:search:%s:%s:%s", date, origin, dest)
}
