package shortener_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/errx"
	"github.com/serroba/shortlink/internal/generation"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2025, time.March, 14, 9, 26, 53, 589793000, time.UTC)

func newWriter(codes shortener.CodeSource, repo shortener.Repository) *shortener.Writer {
	return shortener.NewWriter(codes, repo, clock.NewManual(now), nil, zap.NewNop())
}

func TestWriter_CreateShortURL(t *testing.T) {
	ctx := context.Background()

	t.Run("zero ttl never expires", func(t *testing.T) {
		repo := newFakeRepo()
		w := newWriter(&fakeCodes{codes: []string{"abc123"}}, repo)

		got, err := w.CreateShortURL(ctx, "https://example.com/a", 0)

		require.NoError(t, err)
		assert.Equal(t, shortener.Code("abc123"), got.Code)
		assert.Equal(t, "https://example.com/a", got.LongURL)
		assert.Equal(t, now.Truncate(time.Microsecond), got.CreatedAt)
		assert.Nil(t, got.ExpiresAt)
		assert.NotZero(t, got.ID)
		assert.Equal(t, 1, repo.adds)
	})

	t.Run("positive ttl sets expiry", func(t *testing.T) {
		w := newWriter(&fakeCodes{codes: []string{"abc123"}}, newFakeRepo())

		got, err := w.CreateShortURL(ctx, "https://example.com/a", 3600)

		require.NoError(t, err)
		require.NotNil(t, got.ExpiresAt)
		assert.Equal(t, got.CreatedAt.Add(time.Hour), *got.ExpiresAt)
		assert.True(t, got.ExpiresAt.After(got.CreatedAt))
	})

	t.Run("same url twice yields distinct codes", func(t *testing.T) {
		w := newWriter(&fakeCodes{codes: []string{"a1", "a2"}}, newFakeRepo())

		first, err := w.CreateShortURL(ctx, "https://example.com", 0)
		require.NoError(t, err)

		second, err := w.CreateShortURL(ctx, "https://example.com", 0)
		require.NoError(t, err)

		assert.NotEqual(t, first.Code, second.Code)
	})

	t.Run("negative ttl is invalid", func(t *testing.T) {
		codes := &fakeCodes{codes: []string{"abc"}}
		w := newWriter(codes, newFakeRepo())

		_, err := w.CreateShortURL(ctx, "https://example.com", -1)

		assert.Equal(t, errx.Invalid, errx.KindOf(err))
		assert.ErrorIs(t, err, shortener.ErrNegativeTTL)
		assert.Zero(t, codes.calls)
	})

	t.Run("invalid url identifies the rule", func(t *testing.T) {
		codes := &fakeCodes{codes: []string{"abc"}}
		w := newWriter(codes, newFakeRepo())

		_, err := w.CreateShortURL(ctx, "not a url", 0)

		assert.Equal(t, errx.Invalid, errx.KindOf(err))
		assert.ErrorIs(t, err, shortener.ErrURLInvalidFormat)
		assert.Zero(t, codes.calls)
	})

	t.Run("code source failures keep their kind", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want errx.Kind
		}{
			{name: "unavailable", err: errx.E("client", errx.Unavailable, errors.New("dial")), want: errx.Unavailable},
			{name: "internal", err: errx.E("client", errx.Internal, errors.New("clock")), want: errx.Internal},
			{name: "cancelled", err: errx.E("client", errx.Cancelled, context.Canceled), want: errx.Cancelled},
			{name: "unclassified", err: errors.New("boom"), want: errx.Internal},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := newFakeRepo()
				w := newWriter(&fakeCodes{err: tt.err}, repo)

				_, err := w.CreateShortURL(ctx, "https://example.com", 0)

				assert.Equal(t, tt.want, errx.KindOf(err))
				assert.Zero(t, repo.adds)
			})
		}
	})

	t.Run("blank code is internal", func(t *testing.T) {
		repo := newFakeRepo()
		w := newWriter(&fakeCodes{codes: []string{"   "}}, repo)

		_, err := w.CreateShortURL(ctx, "https://example.com", 0)

		assert.Equal(t, errx.Internal, errx.KindOf(err))
		assert.ErrorIs(t, err, shortener.ErrBlankCode)
		assert.Zero(t, repo.adds)
	})

	t.Run("duplicate code is internal", func(t *testing.T) {
		w := newWriter(&fakeCodes{codes: []string{"dup", "dup"}}, newFakeRepo())

		_, err := w.CreateShortURL(ctx, "https://example.com", 0)
		require.NoError(t, err)

		_, err = w.CreateShortURL(ctx, "https://example.org", 0)

		assert.Equal(t, errx.Internal, errx.KindOf(err))
		assert.ErrorIs(t, err, shortener.ErrDuplicateCode)
	})

	t.Run("store failure is unavailable", func(t *testing.T) {
		repo := newFakeRepo()
		repo.addErr = errors.New("connection reset")
		w := newWriter(&fakeCodes{codes: []string{"abc"}}, repo)

		_, err := w.CreateShortURL(ctx, "https://example.com", 0)

		assert.Equal(t, errx.Unavailable, errx.KindOf(err))
	})

	t.Run("store cancellation is cancelled", func(t *testing.T) {
		repo := newFakeRepo()
		repo.addErr = context.Canceled
		w := newWriter(&fakeCodes{codes: []string{"abc"}}, repo)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := w.CreateShortURL(cancelled, "https://example.com", 0)

		assert.Equal(t, errx.Cancelled, errx.KindOf(err))
	})

	t.Run("store timeout is unavailable while the caller waits", func(t *testing.T) {
		repo := newFakeRepo()
		repo.addErr = fmt.Errorf("acquire connection: %w", context.DeadlineExceeded)
		w := newWriter(&fakeCodes{codes: []string{"abc"}}, repo)

		_, err := w.CreateShortURL(ctx, "https://example.com", 0)

		assert.Equal(t, errx.Unavailable, errx.KindOf(err))
	})
}

func TestWriter_SlowGenerator(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client, err := generation.NewClient(srv.URL, &http.Client{Timeout: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	repo := newFakeRepo()
	w := newWriter(client, repo)

	_, err = w.CreateShortURL(context.Background(), "https://example.com", 0)

	require.Error(t, err)
	assert.Equal(t, errx.Unavailable, errx.KindOf(err))
	assert.Zero(t, repo.adds)
}
