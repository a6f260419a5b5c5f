package cache

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from a redis:// (or rediss://) URL or
// a bare host:port. An empty value returns a nil client, which disables
// caching.
func NewRedisClient(raw string) (*redis.Client, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.Contains(raw, "://") {
		return redis.NewClient(&redis.Options{Addr: raw}), nil
	}

	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}
