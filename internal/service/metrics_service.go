package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP, cache and match activity.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	eventsCreated   prometheus.Counter
	codeCollisions  prometheus.Counter
	eventJoins      *prometheus.CounterVec
	attendanceMarks prometheus.Counter
	heatmapBuilds   prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
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
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
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

	eventsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pelada_events_created_total",
		Help: "Events created",
	})

	codeCollisions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pelada_event_code_collisions_total",
		Help: "Join codes rejected by the store as already taken",
	})

	eventJoins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pelada_event_joins_total",
		Help: "Join attempts by outcome",
	}, []string{"outcome"})

	attendanceMarks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pelada_attendance_marks_total",
		Help: "Attendance days newly marked",
	})

	heatmapBuilds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pelada_heatmap_builds_total",
		Help: "Attendance heatmaps computed",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		eventsCreated, codeCollisions, eventJoins, attendanceMarks, heatmapBuilds, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		eventsCreated:   eventsCreated,
		codeCollisions:  codeCollisions,
		eventJoins:      eventJoins,
		attendanceMarks: attendanceMarks,
		heatmapBuilds:   heatmapBuilds,
	}
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

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
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

// ObserveCacheWrite tracks the duration of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// IncEventsCreated counts a persisted event.
func (m *MetricsService) IncEventsCreated() {
	if m == nil {
		return
	}
	m.eventsCreated.Inc()
}

// IncCodeCollision counts a join code the store rejected as taken.
func (m *MetricsService) IncCodeCollision() {
	if m == nil {
		return
	}
	m.codeCollisions.Inc()
}

// IncEventJoin counts a join attempt: joined, already_member or full.
func (m *MetricsService) IncEventJoin(outcome string) {
	if m == nil {
		return
	}
	m.eventJoins.WithLabelValues(outcome).Inc()
}

// IncAttendanceMarked counts a newly stored attendance day.
func (m *MetricsService) IncAttendanceMarked() {
	if m == nil {
		return
	}
	m.attendanceMarks.Inc()
}

// IncHeatmapBuilds counts a heatmap computation.
func (m *MetricsService) IncHeatmapBuilds() {
	if m == nil {
		return
	}
	m.heatmapBuilds.Inc()
}
