// Package stream implements the Server-Sent Events (SSE) live-position feed
// for the dashboard map. Clients connect via GET /api/v1/stream/live and
// receive the latest published snapshot on every refresh tick.
//
// SSE message format:
//
//	data: {"type":"position","t":"2026-03-01T21:00:00Z","lat":12.5,"lon":44.1,...}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","updated_at":"...","snapshot_age_seconds":3,"stale":false}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent timeout.
// Reconnecting clients receive a fresh metadata message on each connection.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/issdash/issdash/internal/feed"
	"github.com/issdash/issdash/internal/httputil"
	"github.com/issdash/issdash/internal/metrics"
)

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	MaxTotalStreams    int           // Max concurrent streams overall (default: 1000).
	UpdateInterval     time.Duration // How often to push position messages (default: the refresh interval).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Honor X-Forwarded-For for rate limiting.
}

// Handler manages SSE streaming connections.
type Handler struct {
	store   *feed.Store
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler reading from store.
func NewHandler(store *feed.Store, config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	if config.UpdateInterval <= 0 {
		config.UpdateInterval = 10 * time.Second
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		store:   store,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP, config.MaxTotalStreams),
		logger:  logger,
	}
}

// HandleLive serves the SSE live-position stream.
// GET /api/v1/stream/live
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	// Rate limiting: enforce concurrent stream limit per IP.
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
	)

	// Cleanup on disconnect: release rate limit slot and update metrics.
	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	// Verify flusher support (required for SSE). Middleware wrappers must
	// pass Flush through for this to hold behind the full chain.
	if _, ok := w.(http.Flusher); !ok {
		metrics.IncStreamErrors("no_flusher")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming not supported"})
		return
	}

	c := newConn(w, ip, h.logger)

	// Clear the server's default WriteTimeout for this long-lived
	// connection; writeFrame re-arms a per-write deadline instead.
	if err := c.rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	// Set SSE response headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)

	// Send jittered retry interval (3-7s) to prevent thundering-herd
	// reconnection storms when the server restarts.
	retryMs := 3000 + rand.Intn(4000)
	if err := c.writeFrame(fmt.Sprintf("retry: %d\n\n", retryMs)); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (retry hint)", "remote_ip", ip, "error", err)
		return
	}

	// Send metadata message (first message on every connection).
	if snap := h.store.Get(); snap != nil {
		meta := metadataMessage{
			Type:        "metadata",
			UpdatedAt:   snap.UpdatedAt.UTC().Format(time.RFC3339),
			SnapshotAge: int(time.Since(snap.UpdatedAt).Seconds()),
			Stale:       snap.Stale,
		}
		if err := c.sendJSON(meta); err != nil {
			metrics.IncStreamErrors("send_error")
			h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
			return
		}
	}

	ticker := time.NewTicker(h.config.UpdateInterval)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	var lastSent time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			snap := h.store.Get()
			if snap == nil || !snap.HasPosition {
				metrics.IncStreamErrors("no_snapshot")
				continue
			}
			// Skip ticks where the poller published nothing new, unless the
			// staleness state needs to reach the client.
			if !snap.Stale && !snap.Position.Time.After(lastSent) {
				continue
			}

			if err := c.sendJSON(buildPositionMessage(snap)); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}
			lastSent = snap.Position.Time

			// Reset keepalive since we just sent data.
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// buildPositionMessage formats a snapshot into the SSE position payload.
func buildPositionMessage(snap *feed.Snapshot) positionMessage {
	return positionMessage{
		Type:        "position",
		T:           snap.Position.Time.UTC().Format(time.RFC3339),
		Lat:         snap.Position.LatDeg,
		Lon:         snap.Position.LonDeg,
		AltitudeKm:  snap.Position.AltitudeKm,
		VelocityKmh: snap.Position.VelocityKmh,
		Stale:       snap.Stale,
	}
}

// SSE message payload types.

type metadataMessage struct {
	Type        string `json:"type"`
	UpdatedAt   string `json:"updated_at"`
	SnapshotAge int    `json:"snapshot_age_seconds"`
	Stale       bool   `json:"stale"`
}

type positionMessage struct {
	Type        string  `json:"type"`
	T           string  `json:"t"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	AltitudeKm  float64 `json:"altitude_km"`
	VelocityKmh float64 `json:"velocity_kmh"`
	Stale       bool    `json:"stale"`
}
