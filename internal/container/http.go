package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/generation"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/metrics"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// Role selects which operations a process serves.
type Role string

const (
	RoleGenerator Role = "generator"
	RoleWriter    Role = "writer"
	RoleReader    Role = "reader"
)

const apiVersion = "1.0.0"

// Packages registers everything role needs on top of the options value.
func Packages(injector *do.Injector, role Role) {
	LoggerPackage(injector)
	ClockPackage(injector)
	MetricsPackage(injector)

	switch role {
	case RoleGenerator:
		GeneratorPackage(injector)
	case RoleWriter:
		RedisPackage(injector)
		PostgresPackage(injector)
		RepositoryPackage(injector)
		GeneratorPackage(injector)
		CodeSourcePackage(injector)
		WriterPackage(injector)
		RateLimitPackage(injector)
		PublisherGroupPackage(injector)
	case RoleReader:
		RedisPackage(injector)
		PostgresPackage(injector)
		RepositoryPackage(injector)
		CachePackage(injector)
		ReaderPackage(injector)
		RateLimitPackage(injector)
		PublisherGroupPackage(injector)
	}

	HTTPPackage(injector, role)
}

// HTTPPackage provides the chi router and the huma API with the role's routes,
// /health and /metrics registered. The generator is internal and not rate limited.
func HTTPPackage(injector *do.Injector, role Role) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(router, huma.DefaultConfig("Shortlink "+string(role), apiVersion))

		newID, err := middleware.NewRequestIDGenerator()
		if err != nil {
			return nil, err
		}

		api.UseMiddleware(middleware.RequestMeta(newID))

		if role != RoleGenerator {
			limiter, err := do.Invoke[*ratelimit.PolicyLimiter](i)
			if err != nil {
				return nil, err
			}

			api.UseMiddleware(middleware.PolicyRateLimiter(api, limiter, ratelimit.NewOperationScopeResolver(), logger))
		}

		router.Handle("/metrics", metrics.Handler(do.MustInvoke[*prometheus.Registry](i)))

		checks := health.NewHandler(healthChecks(i))
		health.RegisterRoutes(api, checks)

		if err := registerRoutes(i, api, role); err != nil {
			return nil, err
		}

		logger.Info("routes registered", zap.String("role", string(role)), zap.Strings("health_checks", checks.Names()))

		return api, nil
	})
}

func registerRoutes(i *do.Injector, api huma.API, role Role) error {
	logger := do.MustInvoke[*zap.Logger](i)

	switch role {
	case RoleGenerator:
		svc, err := do.Invoke[*generation.Service](i)
		if err != nil {
			return err
		}

		handlers.RegisterGeneratorRoutes(api, handlers.NewGenerateHandler(svc))
	case RoleWriter:
		writer, err := do.Invoke[*shortener.Writer](i)
		if err != nil {
			return err
		}

		publish := do.MustInvoke[messaging.Publish[analytics.URLCreatedEvent]](i)
		handlers.RegisterWriterRoutes(api, handlers.NewWriteHandler(writer, publish, logger))
	case RoleReader:
		reader, err := do.Invoke[*shortener.Reader](i)
		if err != nil {
			return err
		}

		publish := do.MustInvoke[messaging.Publish[analytics.URLResolvedEvent]](i)
		handlers.RegisterReaderRoutes(api, handlers.NewReadHandler(reader, do.MustInvoke[clock.Clock](i), publish, logger))
	}

	return nil
}

// healthChecks probes only the backends the options select.
func healthChecks(i *do.Injector) map[string]health.Checker {
	opts := do.MustInvoke[*Options](i)
	checks := map[string]health.Checker{}

	if opts.UsesRedis() {
		if r, err := do.Invoke[*Redis](i); err == nil {
			checks["redis"] = health.NewRedisChecker(r.Client)
		}
	}

	if opts.Storage == BackendPostgres {
		if pg, err := do.Invoke[*Postgres](i); err == nil {
			checks["postgres"] = health.CheckerFunc(pg.Ping)
		}
	}

	return checks
}
