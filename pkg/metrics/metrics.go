// Package metrics wires Prometheus instrumentation for the HTTP
// surface and for solver runs: request/cache/db timing plus
// scheduler-specific counters (runs, scheduled ratio, quantum
// tunnels, reheats).
package metrics

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edudyne/scheduler/internal/engine"
)

// Service encapsulates Prometheus collectors for the API gateway.
type Service struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	scheduledRatio  prometheus.Gauge
	quantumTunnels  prometheus.Counter
	reheats         prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
	requestCount   uint64
}

// New registers core Prometheus collectors and returns a Service.
func New() *Service {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_runs_total",
		Help: "Total solver runs by algorithm and outcome",
	}, []string{"algorithm", "status"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_run_duration_seconds",
		Help:    "Wall-clock duration of a solver run",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	scheduledRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_last_run_scheduled_ratio",
		Help: "Fraction of sections scheduled in the most recent run",
	})

	quantumTunnels := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_quantum_tunnels_total",
		Help: "Total quantum-inspired tunneling moves accepted across all runs",
	})

	reheats := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_reheats_total",
		Help: "Total annealer reheat events across all runs",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses, dbQueryDuration,
		runsTotal, runDuration, scheduledRatio, quantumTunnels, reheats, goroutines,
	)

	return &Service{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		scheduledRatio:  scheduledRatio,
		quantumTunnels:  quantumTunnels,
		reheats:         reheats,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (s *Service) Handler() http.Handler {
	if s == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return s.handler
}

// ObserveHTTPRequest records request metrics.
func (s *Service) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	s.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&s.requestCount, 1)
}

// RecordCacheOperation records cache hit/miss metrics.
func (s *Service) RecordCacheOperation(hit bool, duration time.Duration) {
	if s == nil {
		return
	}
	s.cacheLatency.Observe(duration.Seconds())
	if hit {
		s.cacheHits.Inc()
		atomic.AddUint64(&s.cacheHitCount, 1)
	} else {
		s.cacheMisses.Inc()
		atomic.AddUint64(&s.cacheMissCount, 1)
	}
}

// ObserveDBQuery records database query timing.
func (s *Service) ObserveDBQuery(label string, duration time.Duration) {
	if s == nil {
		return
	}
	s.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveRun records a solver run's outcome against the engine's
// result, updating the scheduled ratio gauge and the tunnel/reheat
// counters from its OptimizationStats.
func (s *Service) ObserveRun(algorithm string, result engine.Result, duration time.Duration) {
	if s == nil {
		return
	}
	status := "optimal"
	if result.UnscheduledCount > 0 {
		status = "partial"
	}
	s.runsTotal.WithLabelValues(algorithm, status).Inc()
	s.runDuration.Observe(duration.Seconds())
	if result.TotalSections > 0 {
		s.scheduledRatio.Set(float64(result.ScheduledCount) / float64(result.TotalSections))
	}
	s.quantumTunnels.Add(float64(result.Stats.QuantumTunnels))
	s.reheats.Add(float64(result.Stats.Reheats))
}
