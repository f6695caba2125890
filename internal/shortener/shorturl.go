// Package shortener holds the short URL domain: validation, the write path that
// mints and persists codes, and the cache-aside read path.
package shortener

import (
	"context"
	"errors"
	"time"
)

// Code is a base-62 short code.
type Code string

// ShortURL is a persisted mapping. It is immutable once written.
type ShortURL struct {
	ID        int64
	LongURL   string
	Code      Code
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// CachedRecord is the cache mirror of a ShortURL. Expiry status is never cached.
type CachedRecord struct {
	LongURL   string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Resolved is the outcome of a successful lookup.
type Resolved struct {
	Code      Code
	LongURL   string
	CreatedAt time.Time
	ExpiresAt *time.Time
	IsExpired bool
	FromCache bool
}

var (
	ErrNotFound      = errors.New("short url not found")
	ErrDuplicateCode = errors.New("short code already exists")
	ErrCacheMiss     = errors.New("cache miss")
	ErrExpired       = errors.New("short url has expired")
	ErrBlankCode     = errors.New("code source returned a blank code")
)

// Repository is the durable store of short URLs.
type Repository interface {
	// Add persists a new record and returns it as stored.
	// A code that already exists yields ErrDuplicateCode.
	Add(ctx context.Context, shortURL *ShortURL) (*ShortURL, error)
	// GetByCode yields ErrNotFound when no record has the code.
	GetByCode(ctx context.Context, code Code) (*ShortURL, error)
}

// Cache mirrors records by code. Get yields ErrCacheMiss when absent.
type Cache interface {
	Get(ctx context.Context, code Code) (*CachedRecord, error)
	Set(ctx context.Context, code Code, record *CachedRecord, ttl time.Duration) error
}

// CodeSource mints fresh short codes.
type CodeSource interface {
	GenerateCode(ctx context.Context) (string, error)
}

func isExpired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && expiresAt.Before(now)
}
