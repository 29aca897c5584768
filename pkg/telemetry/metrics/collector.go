package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"halcyon-ai/promptgate/pkg/config"
)

// Collector registers and records all gateway metrics.
//
// Metrics:
//   - promptgate_requests_total: completions by model, mode, status
//   - promptgate_request_duration_seconds: completion latency histogram
//   - promptgate_request_tokens_total: token counts by model and type
//   - promptgate_stream_chunks: chunks relayed per streaming completion
//   - promptgate_cache_hits_total / cache_misses_total / cache_size: template cache
//   - promptgate_upstream_healthy: backend health gauge (1 healthy, 0 degraded)
//   - promptgate_upstream_errors_total: backend failures by kind
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	streamChunks    *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	upstreamHealthy prometheus.Gauge
	upstreamErrors  *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics with the
// given registry. If registry is nil, a fresh one is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "promptgate"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// Generation latency runs from sub-second to minutes.
		cfg.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of completion requests processed",
			},
			[]string{"model", "mode", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of completion requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"model", "mode"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_tokens_total",
				Help:      "Total number of tokens reported by the backend",
			},
			[]string{"model", "type"},
		),

		streamChunks: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stream_chunks",
				Help:      "Chunks relayed per streaming completion",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"model"},
		),

		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Cache hits by cache name",
			},
			[]string{"cache"},
		),

		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Cache misses by cache name",
			},
			[]string{"cache"},
		),

		cacheSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_size",
				Help:      "Current cache entry count by cache name",
			},
			[]string{"cache"},
		),

		upstreamHealthy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_healthy",
				Help:      "Backend health (1 healthy, 0 degraded)",
			},
		),

		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_errors_total",
				Help:      "Backend failures by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.tokensTotal,
		c.streamChunks,
		c.cacheHits,
		c.cacheMisses,
		c.cacheSize,
		c.upstreamHealthy,
		c.upstreamErrors,
	)

	return c
}

// RecordRequest records a completed request.
// mode is "buffered" or "stream"; status is "success" or "error".
func (c *Collector) RecordRequest(model, mode, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.requestsTotal.WithLabelValues(model, mode, status).Inc()
	c.requestDuration.WithLabelValues(model, mode).Observe(duration.Seconds())
}

// RecordTokens records token counts reported by the backend.
func (c *Collector) RecordTokens(model string, promptTokens, completionTokens int) {
	if !c.config.Enabled {
		return
	}

	if promptTokens > 0 {
		c.tokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		c.tokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
}

// RecordStreamChunks records the chunk count of a finished stream.
func (c *Collector) RecordStreamChunks(model string, chunks int) {
	if !c.config.Enabled {
		return
	}

	c.streamChunks.WithLabelValues(model).Observe(float64(chunks))
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.config.Enabled {
		return
	}

	c.cacheHits.WithLabelValues(cacheName).Inc()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMisses.WithLabelValues(cacheName).Inc()
}

// UpdateCacheSize updates the current size of a cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.config.Enabled {
		return
	}

	c.cacheSize.WithLabelValues(cacheName).Set(float64(size))
}

// UpdateUpstreamHealth updates the backend health gauge.
func (c *Collector) UpdateUpstreamHealth(healthy bool) {
	if !c.config.Enabled {
		return
	}

	if healthy {
		c.upstreamHealthy.Set(1)
	} else {
		c.upstreamHealthy.Set(0)
	}
}

// RecordUpstreamError records a backend failure.
// kind is one of "unreachable", "status", "timeout", "malformed", "stream".
func (c *Collector) RecordUpstreamError(kind string) {
	if !c.config.Enabled {
		return
	}

	c.upstreamErrors.WithLabelValues(kind).Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
