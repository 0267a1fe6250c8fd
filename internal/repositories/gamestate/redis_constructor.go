package gamestate

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates a new Redis-backed game state repository with default configuration
func NewRedis(client redis.UniversalClient, ttl time.Duration) Repository {
	return NewRedisRepository(&RedisRepoConfig{
		Client:       client,
		TimeProvider: SystemClock(),
		TTL:          ttl,
	})
}
