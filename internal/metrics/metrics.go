// Package metrics holds the Prometheus instruments shared by the services.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kit/kit/endpoint"
	kitmetrics "github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shortlink"

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics is safe to use through a nil pointer; every observation becomes a no-op.
type Metrics struct {
	codesGenerated     prometheus.Counter
	generationFailures *prometheus.CounterVec
	shortURLsCreated   prometheus.Counter
	cacheLookups       *prometheus.CounterVec
	rpcRequests        kitmetrics.Counter
	rpcLatency         kitmetrics.Histogram
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	codesGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "generator",
		Name:      "codes_generated_total",
		Help:      "Number of short codes minted.",
	})
	generationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "generator",
		Name:      "failures_total",
		Help:      "Number of failed generation attempts by reason.",
	}, []string{"reason"})
	shortURLsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "writer",
		Name:      "short_urls_created_total",
		Help:      "Number of short URLs persisted.",
	})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reader",
		Name:      "cache_lookups_total",
		Help:      "Cache probes by outcome.",
	}, []string{"result"})
	rpcRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rpc_client",
		Name:      "request_count",
		Help:      "Number of outbound RPC requests.",
	}, []string{"method", "error"})
	rpcLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "rpc_client",
		Name:      "request_latency_seconds",
		Help:      "Duration of outbound RPC requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "error"})

	reg.MustRegister(codesGenerated, generationFailures, shortURLsCreated, cacheLookups, rpcRequests, rpcLatency)

	return &Metrics{
		codesGenerated:     codesGenerated,
		generationFailures: generationFailures,
		shortURLsCreated:   shortURLsCreated,
		cacheLookups:       cacheLookups,
		rpcRequests:        kitprometheus.NewCounter(rpcRequests),
		rpcLatency:         kitprometheus.NewHistogram(rpcLatency),
	}
}

func (m *Metrics) CodeGenerated() {
	if m == nil {
		return
	}

	m.codesGenerated.Inc()
}

func (m *Metrics) GenerationFailed(reason string) {
	if m == nil {
		return
	}

	m.generationFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ShortURLCreated() {
	if m == nil {
		return
	}

	m.shortURLsCreated.Inc()
}

// CacheLookup records one of CacheHit, CacheMiss or CacheError.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}

	m.cacheLookups.WithLabelValues(result).Inc()
}

// Endpoint instruments a go-kit endpoint with request count and latency.
func (m *Metrics) Endpoint(method string) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		if m == nil {
			return next
		}

		return func(ctx context.Context, request any) (response any, err error) {
			defer func(begin time.Time) {
				lvs := []string{"method", method, "error", fmt.Sprint(err != nil)}
				m.rpcRequests.With(lvs...).Add(1)
				m.rpcLatency.With(lvs...).Observe(time.Since(begin).Seconds())
			}(time.Now())

			return next(ctx, request)
		}
	}
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
