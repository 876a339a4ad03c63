// Package metrics provides Prometheus metrics for the greenhorn service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Crossing detection
	crossings      prometheus.Counter
	levelEvents    *prometheus.CounterVec
	trackedPlayers prometheus.Gauge
	threshold      prometheus.Gauge

	// Override decisions
	overrides *prometheus.CounterVec

	// Configuration and delivery
	configReloads *prometheus.CounterVec
	notifications *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "greenhorn",
		subsystem:        "override",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.crossings = auto.NewCounter(m.counterOpts(
		"crossings_total", "Total number of below-to-at-or-above threshold crossings detected"))
	m.levelEvents = auto.NewCounterVec(m.counterOpts(
		"level_events_total", "Level observations by kind (level_change, login, logout)"),
		[]string{"kind"})
	m.trackedPlayers = auto.NewGauge(m.gaugeOpts(
		"tracked_players", "Players currently tracked below the threshold in an active session"))
	m.threshold = auto.NewGauge(m.gaugeOpts(
		"threshold_level", "Currently active level threshold"))

	m.overrides = auto.NewCounterVec(m.counterOpts(
		"decisions_total", "Override decisions by kind (capacity, applied_value) and outcome"),
		[]string{"kind", "applied"})

	m.configReloads = auto.NewCounterVec(m.counterOpts(
		"config_reloads_total", "Threshold reconfigurations by source and result"),
		[]string{"source", "result"})
	m.notifications = auto.NewCounterVec(m.counterOpts(
		"notifications_total", "Crossing warnings by delivery channel"),
		[]string{"channel"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "HTTP errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
}

// RecordCrossing increments the crossings counter.
func (m *Manager) RecordCrossing() {
	if m.enabled {
		m.crossings.Inc()
	}
}

// RecordLevelEvent counts an observation of the given kind.
func (m *Manager) RecordLevelEvent(kind string) {
	if m.enabled {
		m.levelEvents.WithLabelValues(kind).Inc()
	}
}

// UpdateTrackedPlayers sets the tracked players gauge.
func (m *Manager) UpdateTrackedPlayers(n int) {
	if m.enabled {
		m.trackedPlayers.Set(float64(n))
	}
}

// UpdateThreshold sets the active threshold gauge.
func (m *Manager) UpdateThreshold(t int) {
	if m.enabled {
		m.threshold.Set(float64(t))
	}
}

// RecordOverride counts an override decision.
func (m *Manager) RecordOverride(kind string, applied bool) {
	if m.enabled {
		m.overrides.WithLabelValues(kind, strconv.FormatBool(applied)).Inc()
	}
}

// RecordConfigReload counts a reconfiguration attempt.
func (m *Manager) RecordConfigReload(source, result string) {
	if m.enabled {
		m.configReloads.WithLabelValues(source, result).Inc()
	}
}

// RecordNotification counts a delivered warning.
func (m *Manager) RecordNotification(channel string) {
	if m.enabled {
		m.notifications.WithLabelValues(channel).Inc()
	}
}

// RecordHTTPRequest counts an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes HTTP request latency in milliseconds.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if m.enabled {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByEndpoint counts an HTTP error response.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) {
	if m.enabled {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func (m *Manager) UpdateSystemGoroutineCount(count int) {
	if m.enabled {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// Package-level helpers record on the global manager.

// RecordCrossing increments the crossings counter.
func RecordCrossing() { globalManager.RecordCrossing() }

// RecordLevelEvent counts an observation of the given kind.
func RecordLevelEvent(kind string) { globalManager.RecordLevelEvent(kind) }

// UpdateTrackedPlayers sets the tracked players gauge.
func UpdateTrackedPlayers(n int) { globalManager.UpdateTrackedPlayers(n) }

// UpdateThreshold sets the active threshold gauge.
func UpdateThreshold(t int) { globalManager.UpdateThreshold(t) }

// RecordOverride counts an override decision.
func RecordOverride(kind string, applied bool) { globalManager.RecordOverride(kind, applied) }

// RecordConfigReload counts a reconfiguration attempt.
func RecordConfigReload(source, result string) { globalManager.RecordConfigReload(source, result) }

// RecordNotification counts a delivered warning.
func RecordNotification(channel string) { globalManager.RecordNotification(channel) }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordHTTPRequestDuration observes HTTP request latency in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, durationMs)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.UpdateSystemMemoryUsage(bytes) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.UpdateSystemGoroutineCount(count) }

// Init replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before any handler reads GetRegistry.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
