package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	Healthy        = "healthy"
	Unhealthy      = "unhealthy"
)

// DefaultTimeout bounds each dependency probe.
const DefaultTimeout = 2 * time.Second

// Checker probes one dependency.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler reports the status of the named dependencies of a service.
type Handler struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewHandler creates a handler probing checks. A nil or empty map reports ok.
func NewHandler(checks map[string]Checker) *Handler {
	return &Handler{checks: checks, timeout: DefaultTimeout}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}
}

// Check probes every dependency concurrently. A failing dependency degrades
// the status but never fails the request.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = StatusOK

	if len(h.checks) == 0 {
		return resp, nil
	}

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.checks))
		eg      errgroup.Group
	)

	for name, checker := range h.checks {
		eg.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			state := Healthy
			if err := checker.Ping(probeCtx); err != nil {
				state = Unhealthy
			}

			mu.Lock()
			results[name] = state
			mu.Unlock()

			return nil
		})
	}

	_ = eg.Wait()

	for _, state := range results {
		if state == Unhealthy {
			resp.Body.Status = StatusDegraded
		}
	}

	resp.Body.Checks = results

	return resp, nil
}

// Names lists the registered dependency names in order.
func (h *Handler) Names() []string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Report dependency health",
		Tags:        []string{"Health"},
	}, h.Check)
}
