// Package metrics exposes Prometheus instrumentation for the dashboard
// server: HTTP traffic, feed polling, buffer state, and SSE streaming.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issdash_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "issdash_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	feedPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issdash_feed_polls_total",
			Help: "Feed poll attempts by feed name and outcome.",
		},
		[]string{"feed", "outcome"},
	)

	feedPollDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "issdash_feed_poll_duration_seconds",
			Help:    "Feed poll duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	bufferSamples = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "issdash_buffer_samples",
			Help: "Number of position samples currently in the rolling buffer.",
		},
	)

	snapshotAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "issdash_snapshot_age_seconds",
			Help: "Age of the last successfully published snapshot.",
		},
	)

	snapshotStale = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "issdash_snapshot_stale",
			Help: "1 when the dashboard is rendering last-known-good data.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issdash_stream_connections_total",
			Help: "SSE stream connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "issdash_streams_active",
			Help: "Currently connected SSE streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "issdash_stream_messages_total",
			Help: "SSE data messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "issdash_stream_bytes_total",
			Help: "Bytes written to SSE streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issdash_stream_errors_total",
			Help: "SSE stream errors by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		feedPollsTotal,
		feedPollDurationSeconds,
		bufferSamples,
		snapshotAgeSeconds,
		snapshotStale,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncFeedPoll records one poll attempt. outcome is "success", "unavailable",
// or "malformed".
func IncFeedPoll(feed, outcome string) {
	feedPollsTotal.WithLabelValues(feed, outcome).Inc()
}

// ObserveFeedPoll records the duration of one poll attempt.
func ObserveFeedPoll(feed string, d time.Duration) {
	feedPollDurationSeconds.WithLabelValues(feed).Observe(d.Seconds())
}

// SetBufferSamples publishes the current rolling buffer size.
func SetBufferSamples(n int) {
	bufferSamples.Set(float64(n))
}

// SetSnapshotAge publishes the age of the published snapshot in seconds.
func SetSnapshotAge(seconds float64) {
	snapshotAgeSeconds.Set(seconds)
}

// SetSnapshotStale publishes whether the dashboard is serving stale data.
func SetSnapshotStale(stale bool) {
	if stale {
		snapshotStale.Set(1)
	} else {
		snapshotStale.Set(0)
	}
}

// IncStreamConnections records a stream "connect" or "disconnect" event.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamsActive increments the active stream gauge.
func IncStreamsActive() { streamsActive.Inc() }

// DecStreamsActive decrements the active stream gauge.
func DecStreamsActive() { streamsActive.Dec() }

// IncStreamMessages records one SSE data message sent.
func IncStreamMessages() { streamMessagesTotal.Inc() }

// AddStreamBytes records bytes written to a stream.
func AddStreamBytes(n int64) { streamBytesTotal.Add(float64(n)) }

// IncStreamErrors records a stream error by reason.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// knownRoutes are the exact paths we serve; anything else collapses to
// "other" to keep label cardinality bounded against bot scans.
var knownRoutes = map[string]bool{
	"/":                   true,
	"/healthz":            true,
	"/readyz":             true,
	"/metrics":            true,
	"/api/v1/position":    true,
	"/api/v1/crew":        true,
	"/api/v1/track":       true,
	"/api/v1/analytics":   true,
	"/api/v1/visibility":  true,
	"/api/v1/status":      true,
	"/api/v1/sightings":   true,
	"/api/v1/state":       true,
	"/api/v1/stream/live": true,
}

// normalizeRoute maps a request path to a bounded metrics label.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	// Embedded dashboard assets share one label.
	if path == "/app.js" || path == "/styles.css" || strings.HasPrefix(path, "/static/") {
		return "asset"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
// Flush and Unwrap pass through so SSE streaming and ResponseController
// deadlines keep working behind the middleware.
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

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
