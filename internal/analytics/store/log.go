// Package store holds analytics.Store implementations.
package store

import (
	"context"

	"github.com/serroba/shortlink/internal/analytics"
	"go.uber.org/zap"
)

// Log is an analytics.Store that writes each event to the structured log.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a log-backed analytics store.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) SaveURLCreated(_ context.Context, event *analytics.URLCreatedEvent) error {
	fields := []zap.Field{
		zap.String("code", event.Code),
		zap.String("longUrl", event.LongURL),
		zap.Time("createdAt", event.CreatedAt),
		zap.String("clientIp", event.ClientIP),
		zap.String("requestId", event.RequestID),
	}

	if event.ExpiresAt != nil {
		fields = append(fields, zap.Time("expiresAt", *event.ExpiresAt))
	}

	l.logger.Info("url created event received", fields...)

	return nil
}

func (l *Log) SaveURLResolved(_ context.Context, event *analytics.URLResolvedEvent) error {
	l.logger.Info("url resolved event received",
		zap.String("code", event.Code),
		zap.Time("resolvedAt", event.ResolvedAt),
		zap.Bool("expired", event.Expired),
		zap.Bool("cacheHit", event.CacheHit),
		zap.Bool("redirect", event.Redirect),
		zap.String("referrer", event.Referrer),
		zap.String("requestId", event.RequestID),
	)

	return nil
}

var _ analytics.Store = (*Log)(nil)
