package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

// DefaultCachePrefix namespaces cache keys as shortcode:<code>.
const DefaultCachePrefix = "shortcode:"

const (
	fieldLongURL   = "long_url"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

// RedisCache stores each record as a hash with an expiry set in the same pipeline.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed shortener.Cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: DefaultCachePrefix,
	}
}

func (r *RedisCache) key(code shortener.Code) string {
	return r.prefix + string(code)
}

func (r *RedisCache) Get(ctx context.Context, code shortener.Code) (*shortener.CachedRecord, error) {
	result, err := r.client.HGetAll(ctx, r.key(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrCacheMiss
	}

	return decodeCachedRecord(result)
}

func (r *RedisCache) Set(ctx context.Context, code shortener.Code, record *shortener.CachedRecord, ttl time.Duration) error {
	key := r.key(code)
	pipe := r.client.TxPipeline()

	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, encodeCachedRecord(record))

	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	_, err := pipe.Exec(ctx)

	return err
}

// Ping checks Redis connectivity.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func encodeCachedRecord(record *shortener.CachedRecord) map[string]any {
	fields := map[string]any{
		fieldLongURL:   record.LongURL,
		fieldCreatedAt: record.CreatedAt.UnixNano(),
	}

	if record.ExpiresAt != nil {
		fields[fieldExpiresAt] = record.ExpiresAt.UnixNano()
	}

	return fields
}

func decodeCachedRecord(fields map[string]string) (*shortener.CachedRecord, error) {
	longURL, ok := fields[fieldLongURL]
	if !ok {
		return nil, fmt.Errorf("cached record missing %s", fieldLongURL)
	}

	createdAt, err := parseUnixNano(fields[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("cached record %s: %w", fieldCreatedAt, err)
	}

	record := &shortener.CachedRecord{
		LongURL:   longURL,
		CreatedAt: createdAt,
	}

	if raw, ok := fields[fieldExpiresAt]; ok {
		expiresAt, err := parseUnixNano(raw)
		if err != nil {
			return nil, fmt.Errorf("cached record %s: %w", fieldExpiresAt, err)
		}

		record.ExpiresAt = &expiresAt
	}

	return record, nil
}

func parseUnixNano(raw string) (time.Time, error) {
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(0, nanos).UTC(), nil
}

var _ shortener.Cache = (*RedisCache)(nil)
