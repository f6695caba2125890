package shortener

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/errx"
	"github.com/serroba/shortlink/internal/metrics"
	"go.uber.org/zap"
)

// DefaultCacheTTL bounds how long a cached record may be served stale.
const DefaultCacheTTL = 60 * time.Second

// Reader resolves codes through the cache, falling back to the repository.
// Cache failures are logged and never reach the caller.
type Reader struct {
	repo     Repository
	cache    Cache
	clock    clock.Clock
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewReader creates a Reader. A non-positive cacheTTL uses DefaultCacheTTL. m may be nil.
func NewReader(
	repo Repository,
	cache Cache,
	c clock.Clock,
	cacheTTL time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Reader {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	return &Reader{
		repo:     repo,
		cache:    cache,
		clock:    c,
		cacheTTL: cacheTTL,
		metrics:  m,
		logger:   logger,
	}
}

// Resolve returns the record for code. Expired records are still returned,
// with IsExpired set from the current clock reading.
func (r *Reader) Resolve(ctx context.Context, code Code) (*Resolved, error) {
	const op = "shortener.Resolve"

	if strings.TrimSpace(string(code)) == "" {
		return nil, errx.E(op, errx.NotFound, ErrNotFound)
	}

	if cached, ok := r.fromCache(ctx, code); ok {
		return r.resolved(code, cached, true), nil
	}

	shortURL, err := r.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errx.E(op, errx.NotFound, err)
		}

		return nil, errx.Propagate(ctx, op, err, errx.Unavailable)
	}

	record := &CachedRecord{
		LongURL:   shortURL.LongURL,
		CreatedAt: shortURL.CreatedAt,
		ExpiresAt: shortURL.ExpiresAt,
	}

	if err := r.cache.Set(ctx, code, record, r.cacheTTL); err != nil {
		r.logger.Warn("failed to populate cache",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}

	return r.resolved(code, record, false), nil
}

// Follow resolves code for redirection, failing with Gone when the record has expired.
func (r *Reader) Follow(ctx context.Context, code Code) (*Resolved, error) {
	const op = "shortener.Follow"

	res, err := r.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	if res.IsExpired {
		return res, errx.E(op, errx.Gone, ErrExpired)
	}

	return res, nil
}

func (r *Reader) fromCache(ctx context.Context, code Code) (*CachedRecord, bool) {
	cached, err := r.cache.Get(ctx, code)

	switch {
	case err == nil && cached != nil:
		r.metrics.CacheLookup(metrics.CacheHit)

		return cached, true
	case err == nil || errors.Is(err, ErrCacheMiss):
		r.metrics.CacheLookup(metrics.CacheMiss)
	default:
		r.metrics.CacheLookup(metrics.CacheError)
		r.logger.Warn("cache lookup failed, falling back to store",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}

	return nil, false
}

func (r *Reader) resolved(code Code, record *CachedRecord, fromCache bool) *Resolved {
	return &Resolved{
		Code:      code,
		LongURL:   record.LongURL,
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
		IsExpired: isExpired(record.ExpiresAt, r.clock.Now()),
		FromCache: fromCache,
	}
}
