package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/drivingschool-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation. All methods are nil-safe.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheHitRatio    prometheus.Gauge
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	bookingConflicts *prometheus.CounterVec
	reminderOutcomes *prometheus.CounterVec
	sweepDuration    prometheus.Observer
	sweepProcessed   prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
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

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	bookingConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_conflicts_total",
		Help: "Booking candidates rejected because a resource was already taken",
	}, []string{"dimension"})

	reminderOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_dispatch_total",
		Help: "Reminder dispatch attempts by preferred channel and outcome",
	}, []string{"channel", "outcome"})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reminder_sweep_duration_seconds",
		Help:    "Duration of due-reminder sweeps",
		Buckets: prometheus.DefBuckets,
	})

	sweepProcessed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_sweep_processed_total",
		Help: "Reminders sent by due-reminder sweeps",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		bookingConflicts, reminderOutcomes, sweepDuration, sweepProcessed, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		bookingConflicts: bookingConflicts,
		reminderOutcomes: reminderOutcomes,
		sweepDuration:    sweepDuration,
		sweepProcessed:   sweepProcessed,
	}
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// IncBookingConflict counts a rejected candidate by the dimension that blocked it.
func (m *MetricsService) IncBookingConflict(dimension string) {
	if m == nil {
		return
	}
	m.bookingConflicts.WithLabelValues(dimension).Inc()
}

// RecordReminderOutcome counts one dispatch.
func (m *MetricsService) RecordReminderOutcome(channel models.ReminderChannel, outcome models.DeliveryOutcome) {
	if m == nil {
		return
	}
	m.reminderOutcomes.WithLabelValues(string(channel), string(outcome)).Inc()
}

// ObserveReminderSweep records one ProcessDue run.
func (m *MetricsService) ObserveReminderSweep(processed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
	m.sweepProcessed.Add(float64(processed))
}
