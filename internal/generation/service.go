// Package generation exposes the snowflake generator as a service and provides
// the client other services use to reach it.
package generation

import (
	"context"

	"github.com/serroba/shortlink/internal/errx"
	"github.com/serroba/shortlink/internal/metrics"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/snowflake"
	"go.uber.org/zap"
)

// Generator mints short codes.
type Generator interface {
	Generate() (string, error)
}

// Service wraps a Generator with cancellation checks, logging and metrics.
// Failures are never retried.
type Service struct {
	gen     Generator
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a generation service. m may be nil.
func NewService(gen Generator, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		gen:     gen,
		metrics: m,
		logger:  logger,
	}
}

// GenerateCode returns a fresh short code.
func (s *Service) GenerateCode(ctx context.Context) (string, error) {
	const op = "generation.GenerateCode"

	if err := ctx.Err(); err != nil {
		return "", errx.E(op, errx.Cancelled, err)
	}

	code, err := s.gen.Generate()
	if err != nil {
		reason := "unknown"
		if snowflake.IsClockError(err) {
			reason = "clock"
		}

		s.metrics.GenerationFailed(reason)
		s.logger.Error("code generation failed",
			zap.String("reason", reason),
			zap.Error(err),
		)

		return "", errx.E(op, errx.Internal, err)
	}

	s.metrics.CodeGenerated()

	return code, nil
}

var _ shortener.CodeSource = (*Service)(nil)
