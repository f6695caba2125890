// Package container wires the services with samber/do.
package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/analytics"
	analyticsstore "github.com/serroba/shortlink/internal/analytics/store"
	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/generation"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/metrics"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/snowflake"
	"github.com/serroba/shortlink/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	consumerGroupName = "analytics"
	startupTimeout    = 10 * time.Second
	generatorTimeout  = 5 * time.Second
	publishTimeout    = 250 * time.Millisecond
)

// Redis owns the shared client and closes it on injector shutdown.
type Redis struct {
	*redis.Client
}

func (r *Redis) Shutdown() error {
	return r.Close()
}

// Postgres owns the connection pool and closes it on injector shutdown.
type Postgres struct {
	*pgxpool.Pool
}

func (p *Postgres) Shutdown() error {
	p.Close()

	return nil
}

// LoggerPackage provides the zap logger configured by LogFormat and LogLevel.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat, opts.LogLevel)
	})
}

// NewLogger builds a console (development) or json (production) logger.
func NewLogger(format, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

func ClockPackage(injector *do.Injector) {
	do.ProvideValue[clock.Clock](injector, clock.System{})
}

// MetricsPackage provides a private registry with runtime collectors and the
// shared instruments.
func MetricsPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(injector, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i)), nil
	})
}

func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)

		return &Redis{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// PostgresPackage provides the pool, creating the schema when asked to.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if opts.EnsureSchema {
			if err := store.NewPostgresStore(pool).EnsureSchema(ctx); err != nil {
				pool.Close()

				return nil, err
			}
		}

		return &Postgres{Pool: pool}, nil
	})
}

// RepositoryPackage provides the shortener.Repository selected by Storage.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.Storage == BackendMemory {
			return store.NewMemoryStore(), nil
		}

		pg, err := do.Invoke[*Postgres](i)
		if err != nil {
			return nil, err
		}

		return store.NewPostgresStore(pg.Pool), nil
	})
}

// CachePackage provides the shortener.Cache selected by CacheBackend.
func CachePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Cache, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.CacheBackend {
		case BackendRedis:
			return store.NewRedisCache(do.MustInvoke[*Redis](i).Client), nil
		case BackendMemory:
			return store.NewMemoryCache(time.Minute), nil
		default:
			return store.NoopCache{}, nil
		}
	})
}

// GeneratorPackage provides the snowflake generator and the in-process service over it.
func GeneratorPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*snowflake.Generator, error) {
		opts := do.MustInvoke[*Options](i)

		return snowflake.New(do.MustInvoke[clock.Clock](i), snowflake.Config{InstanceID: uint16(opts.InstanceID)})
	})

	do.Provide(injector, func(i *do.Injector) (*generation.Service, error) {
		return generation.NewService(
			do.MustInvoke[*snowflake.Generator](i),
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// CodeSourcePackage provides the remote client when GeneratorURL is set and
// the in-process service otherwise.
func CodeSourcePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.CodeSource, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.GeneratorURL == "" {
			logger.Info("generating codes in-process", zap.Int("instance_id", opts.InstanceID))

			return do.Invoke[*generation.Service](i)
		}

		logger.Info("using remote generation service", zap.String("url", opts.GeneratorURL))

		return generation.NewClient(
			opts.GeneratorURL,
			&http.Client{Timeout: generatorTimeout},
			do.MustInvoke[*metrics.Metrics](i),
		)
	})
}

func WriterPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortener.Writer, error) {
		codes, err := do.Invoke[shortener.CodeSource](i)
		if err != nil {
			return nil, err
		}

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		return shortener.NewWriter(
			codes,
			repo,
			do.MustInvoke[clock.Clock](i),
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

func ReaderPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortener.Reader, error) {
		opts := do.MustInvoke[*Options](i)

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		return shortener.NewReader(
			repo,
			do.MustInvoke[shortener.Cache](i),
			do.MustInvoke[clock.Clock](i),
			time.Duration(opts.CacheTTLSeconds)*time.Second,
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// RateLimitPackage provides the policy limiter over the store selected by RateLimitBackend.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)
		c := do.MustInvoke[clock.Clock](i)

		if opts.RateLimitBackend == BackendMemory {
			return store.NewRateLimitMemoryStore(c), nil
		}

		return store.NewRateLimitRedisStore(do.MustInvoke[*Redis](i).Client, c), nil
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		return ratelimit.NewPolicyLimiter(do.MustInvoke[ratelimit.Store](i), ratelimit.DefaultPolicy()), nil
	})
}

// PublisherGroupPackage provides the typed analytics publishers. With Events
// off they discard and Redis is never touched.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: do.MustInvoke[*Redis](i).Client},
			messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)),
		)
		if err != nil {
			return nil, fmt.Errorf("create redis stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.URLCreatedEvent], error) {
		if !do.MustInvoke[*Options](i).Events {
			return messaging.Discard[analytics.URLCreatedEvent](), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.WithTimeout(
			messaging.NewPublishFunc[analytics.URLCreatedEvent](group.Publisher(), analytics.TopicURLCreated),
			publishTimeout,
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.URLResolvedEvent], error) {
		if !do.MustInvoke[*Options](i).Events {
			return messaging.Discard[analytics.URLResolvedEvent](), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.WithTimeout(
			messaging.NewPublishFunc[analytics.URLResolvedEvent](group.Publisher(), analytics.TopicURLResolved),
			publishTimeout,
		), nil
	})
}

// ConsumerGroupPackage provides the analytics consumers reading Redis streams
// into the log store.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        do.MustInvoke[*Redis](i).Client,
				ConsumerGroup: consumerGroupName,
			},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create redis stream subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		analytics.RegisterConsumers(group, subscriber, analyticsstore.NewLog(logger), logger)

		return group, nil
	})
}
