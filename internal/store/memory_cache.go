package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryCache is an in-process shortener.Cache with per-entry expiry.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a cache that sweeps expired entries every cleanupInterval.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		items: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

func (m *MemoryCache) Get(_ context.Context, code shortener.Code) (*shortener.CachedRecord, error) {
	v, ok := m.items.Get(string(code))
	if !ok {
		return nil, shortener.ErrCacheMiss
	}

	record := v.(shortener.CachedRecord)
	if record.ExpiresAt != nil {
		exp := *record.ExpiresAt
		record.ExpiresAt = &exp
	}

	return &record, nil
}

func (m *MemoryCache) Set(_ context.Context, code shortener.Code, record *shortener.CachedRecord, ttl time.Duration) error {
	stored := *record
	if stored.ExpiresAt != nil {
		exp := *stored.ExpiresAt
		stored.ExpiresAt = &exp
	}

	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}

	m.items.Set(string(code), stored, ttl)

	return nil
}

// NoopCache never stores anything; every lookup misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, shortener.Code) (*shortener.CachedRecord, error) {
	return nil, shortener.ErrCacheMiss
}

func (NoopCache) Set(context.Context, shortener.Code, *shortener.CachedRecord, time.Duration) error {
	return nil
}

var (
	_ shortener.Cache = (*MemoryCache)(nil)
	_ shortener.Cache = NoopCache{}
)
