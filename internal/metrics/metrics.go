// Package metrics provides Prometheus metrics for termfolio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "termfolio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Interpreter metrics
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_commands_total",
			Help: "Total commands executed, by verb",
		},
		[]string{"verb"},
	)

	filtersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_filters_total",
			Help: "Total pipe filters applied, by filter name",
		},
		[]string{"filter"},
	)

	completionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_completions_total",
			Help: "Total autocomplete requests, by result kind",
		},
		[]string{"kind"},
	)

	// VFS and manifest metrics
	vfsEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "termfolio_vfs_entries",
			Help: "Number of files and directories in each mounted tree",
		},
		[]string{"mount"},
	)

	manifestConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_manifest_conflicts_total",
			Help: "Manifest entries dropped because a file blocked a directory",
		},
		[]string{"mount"},
	)

	manifestLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_manifest_loads_total",
			Help: "Total manifest loads",
		},
		[]string{"source", "status"},
	)

	manifestLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "termfolio_manifest_load_duration_seconds",
			Help:    "Time to fetch and decode a manifest",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// Session metrics
	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "termfolio_sessions_active",
			Help: "Number of live shell sessions",
		},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_auth_attempts_total",
			Help: "Total session token checks",
		},
		[]string{"status"},
	)

	tokensIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "termfolio_tokens_issued_total",
			Help: "Total session tokens issued",
		},
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "termfolio_rate_limit_hits_total",
			Help: "Total requests rejected by the per-session rate limit",
		},
	)

	// Env store metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "termfolio_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// SSE metrics
	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "termfolio_sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	sseEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_sse_events_total",
			Help: "Total SSE events published",
		},
		[]string{"type"},
	)

	sseEventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_sse_events_dropped_total",
			Help: "SSE events not delivered because a subscriber was too slow",
		},
		[]string{"type"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCommand counts one executed command.
func RecordCommand(verb string) {
	commandsTotal.WithLabelValues(verb).Inc()
}

// RecordFilter counts one applied filter stage.
func RecordFilter(name string) {
	filtersTotal.WithLabelValues(name).Inc()
}

// RecordCompletion counts one completion by kind (single, multiple, none).
func RecordCompletion(kind string) {
	completionsTotal.WithLabelValues(kind).Inc()
}

// SetVFSEntries sets the entry count of a mounted tree.
func SetVFSEntries(mount string, n int) {
	vfsEntries.WithLabelValues(mount).Set(float64(n))
}

// RecordManifestConflict counts a dropped manifest entry.
func RecordManifestConflict(mount string) {
	manifestConflictsTotal.WithLabelValues(mount).Inc()
}

// RecordManifestLoad records a manifest fetch.
func RecordManifestLoad(source string, duration time.Duration, success bool) {
	manifestLoadDuration.WithLabelValues(source).Observe(duration.Seconds())
	status := "success"
	if !success {
		status = "error"
	}
	manifestLoadsTotal.WithLabelValues(source, status).Inc()
}

// SetSessionsActive sets the number of live sessions.
func SetSessionsActive(count int) {
	sessionsActive.Set(float64(count))
}

// RecordAuthAttempt records a token check.
func RecordAuthAttempt(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	authAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordTokenIssued counts an issued session token.
func RecordTokenIssued() {
	tokensIssuedTotal.Inc()
}

// RecordRateLimitHit counts a rejected request.
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(query string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// SetSSEConnectionsActive sets the number of active SSE connections.
func SetSSEConnectionsActive(count int64) {
	sseConnectionsActive.Set(float64(count))
}

// RecordSSEEvent records an SSE event publication.
func RecordSSEEvent(eventType string) {
	sseEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordSSEDropped counts an event a slow subscriber missed.
func RecordSSEDropped(eventType string) {
	sseEventsDroppedTotal.WithLabelValues(eventType).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
// Paths are labelled by their mux pattern to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequest(r.Method, path, rw.statusCode, time.Since(start))
	})
}
