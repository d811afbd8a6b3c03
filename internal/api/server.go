package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/issdash/issdash/internal/auth"
	"github.com/issdash/issdash/internal/feed"
	"github.com/issdash/issdash/internal/health"
	"github.com/issdash/issdash/internal/metrics"
	"github.com/issdash/issdash/internal/stream"
	"github.com/issdash/issdash/internal/track"
)

// Config holds the visibility defaults exposed through the API.
type Config struct {
	MinElevationDeg    float64 // Default visibility threshold (default: 10).
	NearbyToleranceDeg float64 // Angular tolerance for the nearby check (default: 5).
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server serving the dashboard API, the
// SSE stream, and the embedded frontend.
func NewServer(
	addr string,
	logger *slog.Logger,
	authCfg auth.Config,
	cfg Config,
	store *feed.Store,
	ring *track.Ring,
	sun *feed.SunClient,
	sightings *feed.SightingsClient,
	streamHandler *stream.Handler,
	webContent fs.FS,
) *Server {
	if cfg.MinElevationDeg <= 0 {
		cfg.MinElevationDeg = 10
	}
	if cfg.NearbyToleranceDeg <= 0 {
		cfg.NearbyToleranceDeg = 5
	}

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(store))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/position", positionHandler(store))
	mux.HandleFunc("GET /api/v1/crew", crewHandler(store))
	mux.HandleFunc("GET /api/v1/track", trackHandler(ring))
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler(store))
	mux.HandleFunc("GET /api/v1/state", stateHandler(store))
	mux.HandleFunc("GET /api/v1/visibility", visibilityHandler(ring, cfg))
	mux.HandleFunc("GET /api/v1/status", statusHandler(store, sun, cfg, logger))
	mux.HandleFunc("GET /api/v1/sightings", sightingsHandler(sightings, logger))
	mux.HandleFunc("GET /api/v1/stream/live", streamHandler.HandleLive)

	// Embedded dashboard frontend.
	mux.Handle("GET /", http.FileServerFS(webContent))

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

// statusRecorder captures the status code for the request log. Flush and
// Unwrap pass through so the SSE stream stays flushable behind the chain.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
