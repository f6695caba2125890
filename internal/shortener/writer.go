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

// Writer validates a long URL, obtains a fresh code and persists the mapping.
// Every call mints a new code, even for a URL that was shortened before.
type Writer struct {
	codes   CodeSource
	repo    Repository
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewWriter creates a Writer. m may be nil.
func NewWriter(codes CodeSource, repo Repository, c clock.Clock, m *metrics.Metrics, logger *zap.Logger) *Writer {
	return &Writer{
		codes:   codes,
		repo:    repo,
		clock:   c,
		metrics: m,
		logger:  logger,
	}
}

// CreateShortURL stores longURL under a newly minted code. A positive
// ttlSeconds sets ExpiresAt; zero means the record never expires.
func (w *Writer) CreateShortURL(ctx context.Context, longURL string, ttlSeconds int64) (*ShortURL, error) {
	const op = "shortener.CreateShortURL"

	if err := ValidateLongURL(longURL); err != nil {
		return nil, errx.E(op, errx.Invalid, err)
	}

	if err := ValidateTTL(ttlSeconds); err != nil {
		return nil, errx.E(op, errx.Invalid, err)
	}

	createdAt := w.clock.Now().UTC().Truncate(time.Microsecond)

	var expiresAt *time.Time

	if ttlSeconds > 0 {
		exp := createdAt.Add(time.Duration(ttlSeconds) * time.Second)
		expiresAt = &exp
	}

	code, err := w.codes.GenerateCode(ctx)
	if err != nil {
		return nil, errx.Propagate(ctx, op, err, errx.Internal)
	}

	if strings.TrimSpace(code) == "" {
		return nil, errx.E(op, errx.Internal, ErrBlankCode)
	}

	stored, err := w.repo.Add(ctx, &ShortURL{
		LongURL:   longURL,
		Code:      Code(code),
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			w.logger.Error("generated code collided with an existing record",
				zap.String("code", code),
				zap.Error(err),
			)

			return nil, errx.E(op, errx.Internal, err)
		}

		return nil, errx.Propagate(ctx, op, err, errx.Unavailable)
	}

	w.metrics.ShortURLCreated()

	w.logger.Debug("short url created",
		zap.String("code", code),
		zap.Int64("ttlSeconds", ttlSeconds),
	)

	return stored, nil
}
