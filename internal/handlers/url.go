package handlers

import (
	"context"
	"net/http"

	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/errx"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// WriteHandler serves the CreateShortUrl operation.
type WriteHandler struct {
	writer            *shortener.Writer
	publishURLCreated messaging.Publish[analytics.URLCreatedEvent]
	logger            *zap.Logger
}

// NewWriteHandler creates a write handler. Publish failures are logged only.
func NewWriteHandler(
	writer *shortener.Writer,
	publishURLCreated messaging.Publish[analytics.URLCreatedEvent],
	logger *zap.Logger,
) *WriteHandler {
	return &WriteHandler{
		writer:            writer,
		publishURLCreated: publishURLCreated,
		logger:            logger,
	}
}

func (h *WriteHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	shortURL, err := h.writer.CreateShortURL(ctx, req.Body.LongURL, req.Body.TTLSeconds)
	if err != nil {
		h.logger.Info("create short url failed",
			zap.String("op", errx.OpOf(err)),
			zap.Stringer("kind", errx.KindOf(err)),
			zap.Error(err),
		)

		return nil, ToHTTPError(err)
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.URLCreatedEvent{
		Code:      string(shortURL.Code),
		LongURL:   shortURL.LongURL,
		CreatedAt: shortURL.CreatedAt,
		ExpiresAt: shortURL.ExpiresAt,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		RequestID: meta.RequestID,
	}

	if err := h.publishURLCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &CreateShortURLResponse{}
	resp.Body.ShortCode = string(shortURL.Code)
	resp.Body.CreatedAt = shortURL.CreatedAt
	resp.Body.ExpiresAt = shortURL.ExpiresAt

	return resp, nil
}

// ReadHandler serves ResolveShortUrl and the redirect endpoint.
type ReadHandler struct {
	reader             *shortener.Reader
	clock              clock.Clock
	publishURLResolved messaging.Publish[analytics.URLResolvedEvent]
	logger             *zap.Logger
}

// NewReadHandler creates a read handler. Publish failures are logged only.
func NewReadHandler(
	reader *shortener.Reader,
	c clock.Clock,
	publishURLResolved messaging.Publish[analytics.URLResolvedEvent],
	logger *zap.Logger,
) *ReadHandler {
	return &ReadHandler{
		reader:             reader,
		clock:              c,
		publishURLResolved: publishURLResolved,
		logger:             logger,
	}
}

func (h *ReadHandler) ResolveShortURL(ctx context.Context, req *ResolveShortURLRequest) (*ResolveShortURLResponse, error) {
	res, err := h.reader.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		return nil, ToHTTPError(err)
	}

	h.publishResolved(ctx, res, false)

	resp := &ResolveShortURLResponse{}
	resp.Body.ShortCode = string(res.Code)
	resp.Body.LongURL = res.LongURL
	resp.Body.CreatedAt = res.CreatedAt
	resp.Body.ExpiresAt = res.ExpiresAt
	resp.Body.IsExpired = res.IsExpired

	return resp, nil
}

// RedirectToURL answers 302 for live codes, 404 for unknown ones and 410 once expired.
func (h *ReadHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	res, err := h.reader.Follow(ctx, shortener.Code(req.Code))
	if res != nil {
		h.publishResolved(ctx, res, true)
	}

	if err != nil {
		return nil, ToHTTPError(err)
	}

	return &RedirectResponse{
		Status:   http.StatusFound,
		Location: res.LongURL,
	}, nil
}

func (h *ReadHandler) publishResolved(ctx context.Context, res *shortener.Resolved, redirect bool) {
	meta := RequestMetaFromContext(ctx)
	event := &analytics.URLResolvedEvent{
		Code:       string(res.Code),
		ResolvedAt: h.clock.Now(),
		Expired:    res.IsExpired,
		CacheHit:   res.FromCache,
		Redirect:   redirect,
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
		RequestID:  meta.RequestID,
	}

	if err := h.publishURLResolved(ctx, event); err != nil {
		h.logger.Error("failed to publish resolve event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}
