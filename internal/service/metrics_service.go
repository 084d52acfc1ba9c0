package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the portal.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	backendErrors   *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	pollTicks       *prometheus.CounterVec
	activePollers   prometheus.Gauge
	staleLoads      prometheus.Counter
	jobRuns         *prometheus.HistogramVec
}

// NewMetricsService registers the portal collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "Duration of portal HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "Total number of portal HTTP requests",
	}, []string{"method", "path", "status"})

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_backend_request_duration_seconds",
		Help:    "Duration of calls to the thesis backend",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
	}, []string{"op", "status"})

	backendErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_backend_errors_total",
		Help: "Backend calls that did not return a 2xx answer",
	}, []string{"op"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result",
	}, []string{"result"})

	pollTicks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_notification_poll_ticks_total",
		Help: "Notification poller ticks by outcome",
	}, []string{"outcome"})

	activePollers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "portal_notification_pollers",
		Help: "Notification pollers currently in the POLLING state",
	})

	staleLoads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_dashboard_stale_loads_total",
		Help: "Dashboard loads discarded because a newer load superseded them",
	})

	jobRuns := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_job_run_duration_seconds",
		Help:    "Background job runs by queue and outcome",
		Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120},
	}, []string{"queue", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, backendDuration, backendErrors, cacheLookups, pollTicks, activePollers, staleLoads, jobRuns, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		backendDuration: backendDuration,
		backendErrors:   backendErrors,
		cacheLookups:    cacheLookups,
		pollTicks:       pollTicks,
		activePollers:   activePollers,
		staleLoads:      staleLoads,
		jobRuns:         jobRuns,
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

// ObserveHTTPRequest records portal request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveBackendCall records one thesis backend call. Status 0 means the
// call never got an answer.
func (m *MetricsService) ObserveBackendCall(op string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.backendDuration.WithLabelValues(op, strconv.Itoa(status)).Observe(duration.Seconds())
	if status < 200 || status > 299 {
		m.backendErrors.WithLabelValues(op).Inc()
	}
}

// RecordCacheLookup counts a catalog cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordPollTick counts a poller tick.
func (m *MetricsService) RecordPollTick(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.pollTicks.WithLabelValues(outcome).Inc()
}

// PollerStarted and PollerStopped track active pollers.
func (m *MetricsService) PollerStarted() {
	if m != nil {
		m.activePollers.Inc()
	}
}

func (m *MetricsService) PollerStopped() {
	if m != nil {
		m.activePollers.Dec()
	}
}

// RecordStaleLoad counts a discarded dashboard load.
func (m *MetricsService) RecordStaleLoad() {
	if m != nil {
		m.staleLoads.Inc()
	}
}

// ObserveJob records how a background job run ended.
func (m *MetricsService) ObserveJob(queue, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(queue, outcome).Observe(took.Seconds())
}
