package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/clock"
)

// slidingWindowScript trims entries older than the window, records the current
// request and returns the number of requests left in the window.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
redis.call("ZADD", key, now, ARGV[3])
redis.call("PEXPIRE", key, window)
return redis.call("ZCARD", key)
`)

// RateLimitRedisStore is a ratelimit.Store shared by every replica through Redis.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
	clock  clock.Clock
}

// NewRateLimitRedisStore creates a Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client, c clock.Clock) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
		clock:  c,
	}
}

func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	return slidingWindowScript.Run(ctx, s.client,
		[]string{s.prefix + key},
		s.clock.Now().UnixMilli(),
		window.Milliseconds(),
		uuid.NewString(),
	).Int64()
}
