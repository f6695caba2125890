package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type okResponse struct {
	Body struct {
		OK bool `json:"ok"`
	}
}

func ok(context.Context, *struct{}) (*okResponse, error) {
	resp := &okResponse{}
	resp.Body.OK = true

	return resp, nil
}

type brokenStore struct{}

func (brokenStore) Record(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

var testPolicy = &ratelimit.Policy{
	Limits: map[ratelimit.Scope][]ratelimit.LimitConfig{
		ratelimit.ScopeRead:  {{Window: time.Minute, Max: 3}},
		ratelimit.ScopeWrite: {{Window: time.Minute, Max: 1}},
	},
}

func newLimitedAPI(t *testing.T, rlStore ratelimit.Store, logger *zap.Logger) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)
	limiter := ratelimit.NewPolicyLimiter(rlStore, testPolicy)
	api.UseMiddleware(middleware.PolicyRateLimiter(api, limiter, ratelimit.NewOperationScopeResolver(), logger))

	huma.Register(api, huma.Operation{OperationID: "read", Method: http.MethodGet, Path: "/read"}, ok)
	huma.Register(api, huma.Operation{OperationID: "write", Method: http.MethodPost, Path: "/write"}, ok)
	huma.Register(api, huma.Operation{
		OperationID: "internal",
		Method:      http.MethodPost,
		Path:        "/internal",
		Metadata:    map[string]any{ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true}},
	}, ok)
	huma.Register(api, huma.Operation{
		OperationID: "custom",
		Method:      http.MethodGet,
		Path:        "/custom",
		Metadata: map[string]any{ratelimit.MetadataKey: ratelimit.EndpointConfig{
			Limits: []ratelimit.LimitConfig{{Window: 30 * time.Second, Max: 2}},
		}},
	}, ok)

	return api
}

func TestPolicyRateLimiter(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("applies the policy scope for the method", func(t *testing.T) {
		api := newLimitedAPI(t, store.NewRateLimitMemoryStore(clock.NewManual(start)), zap.NewNop())

		for range 3 {
			assert.Equal(t, http.StatusOK, api.Get("/read").Code)
		}

		resp := api.Get("/read")

		assert.Equal(t, http.StatusTooManyRequests, resp.Code)
		assert.Equal(t, "60", resp.Header().Get("Retry-After"))
	})

	t.Run("write scope is tighter", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		api := newLimitedAPI(t, store.NewRateLimitMemoryStore(clock.NewManual(start)), zap.New(core))

		assert.Equal(t, http.StatusOK, api.Post("/write").Code)
		assert.Equal(t, http.StatusTooManyRequests, api.Post("/write").Code)
		assert.Equal(t, 1, logs.FilterMessage("rate limit exceeded").Len())
	})

	t.Run("disabled endpoints are never limited", func(t *testing.T) {
		api := newLimitedAPI(t, brokenStore{}, zap.NewNop())

		for range 5 {
			assert.Equal(t, http.StatusOK, api.Post("/internal").Code)
		}
	})

	t.Run("custom limits replace the policy", func(t *testing.T) {
		api := newLimitedAPI(t, store.NewRateLimitMemoryStore(clock.NewManual(start)), zap.NewNop())

		for range 2 {
			assert.Equal(t, http.StatusOK, api.Get("/custom").Code)
		}

		resp := api.Get("/custom")

		assert.Equal(t, http.StatusTooManyRequests, resp.Code)
		assert.Equal(t, "30", resp.Header().Get("Retry-After"))

		assert.Equal(t, http.StatusOK, api.Get("/read").Code, "custom limits do not consume the read scope")
	})

	t.Run("clients are keyed by ip and user agent", func(t *testing.T) {
		api := newLimitedAPI(t, store.NewRateLimitMemoryStore(clock.NewManual(start)), zap.NewNop())

		assert.Equal(t, http.StatusOK, api.Post("/write", "User-Agent: a").Code)
		assert.Equal(t, http.StatusOK, api.Post("/write", "User-Agent: b").Code)
		assert.Equal(t, http.StatusOK, api.Post("/write", "User-Agent: a", "X-Forwarded-For: 203.0.113.9").Code)
		assert.Equal(t, http.StatusTooManyRequests, api.Post("/write", "User-Agent: a").Code)
	})

	t.Run("store failures let requests through", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		api := newLimitedAPI(t, brokenStore{}, zap.New(core))

		for range 5 {
			resp := api.Get("/read")

			assert.Equal(t, http.StatusOK, resp.Code)
			assert.NotContains(t, resp.Body.String(), "redis down")
		}

		assert.Equal(t, http.StatusOK, api.Get("/custom").Code)
		assert.Equal(t, http.StatusOK, api.Post("/write").Code)
		assert.Equal(t, 7, logs.FilterMessage("rate limit check failed, allowing request").Len())
	})
}
