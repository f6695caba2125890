package ratelimit

import (
	"context"
	"time"
)

// Store counts requests per key over a sliding window.
type Store interface {
	// Record records a request and returns the number of requests in the window ending now.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
