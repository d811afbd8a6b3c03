package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/issdash/issdash/internal/api"
	"github.com/issdash/issdash/internal/auth"
	"github.com/issdash/issdash/internal/feed"
	"github.com/issdash/issdash/internal/metrics"
	"github.com/issdash/issdash/internal/stream"
	"github.com/issdash/issdash/internal/track"
	"github.com/issdash/issdash/web"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	logger := newLogger()

	addr := os.Getenv("ISSDASH_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	feedCfg := loadFeedConfig(logger)
	pollerCfg := loadPollerConfig(logger)
	apiCfg := loadAPIConfig(logger)

	ring := track.NewRing(feedCfg.BufferCapacity)
	store := feed.NewStore()

	position := feed.NewPositionClient(feedCfg.PositionURL, feedCfg.Timeout)
	crew := feed.NewCrewClient(feedCfg.CrewURL, feedCfg.Timeout)
	sun := feed.NewSunClient(feedCfg.SunURL, feedCfg.Timeout)
	sightings := feed.NewSightingsClient(feedCfg.SightingsURL, feedCfg.Timeout)

	poller := feed.NewPoller(position, crew, ring, store, pollerCfg, logger)

	streamCfg := loadStreamConfig(logger, pollerCfg.RefreshInterval)
	streamHandler := stream.NewHandler(store, streamCfg, logger)

	srv := api.NewServer(addr, logger, authCfg, apiCfg, store, ring, sun, sightings, streamHandler, web.Content)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the feed polling loop.
	go poller.Run(ctx)

	// Background goroutine to update the snapshot age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetSnapshotAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", addr,
			"auth_enabled", authCfg.Enabled,
			"position_url", position.URL(),
			"sightings_enabled", sightings.Enabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("ISSDASH_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var out io.Writer = os.Stdout
	if path := os.Getenv("ISSDASH_LOG_FILE"); path != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("ISSDASH_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("ISSDASH_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("ISSDASH_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("ISSDASH_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

type feedConfig struct {
	PositionURL    string
	CrewURL        string
	SunURL         string
	SightingsURL   string
	Timeout        time.Duration
	BufferCapacity int
}

func loadFeedConfig(logger *slog.Logger) feedConfig {
	cfg := feedConfig{
		Timeout:        5 * time.Second,
		BufferCapacity: 360,
	}

	cfg.PositionURL = os.Getenv("ISSDASH_POSITION_URL")
	cfg.CrewURL = os.Getenv("ISSDASH_CREW_URL")
	cfg.SunURL = os.Getenv("ISSDASH_SUN_URL")
	cfg.SightingsURL = os.Getenv("ISSDASH_SIGHTINGS_FEED_URL")

	if v := os.Getenv("ISSDASH_FEED_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSDASH_FEED_TIMEOUT value, using default", "value", v, "default", 5)
		} else {
			cfg.Timeout = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ISSDASH_BUFFER_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			logger.Warn("invalid ISSDASH_BUFFER_CAPACITY value, using default", "value", v, "default", 360)
		} else {
			cfg.BufferCapacity = n
		}
	}

	logger.Info("feed config",
		"timeout_seconds", cfg.Timeout.Seconds(),
		"buffer_capacity", cfg.BufferCapacity,
		"sightings_feed_configured", cfg.SightingsURL != "",
	)

	return cfg
}

func loadPollerConfig(logger *slog.Logger) feed.Config {
	cfg := feed.Config{
		RefreshInterval: 10 * time.Second,
		CrewInterval:    time.Hour,
	}

	if v := os.Getenv("ISSDASH_REFRESH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSDASH_REFRESH_INTERVAL value, using default", "value", v, "default", 10)
		} else {
			cfg.RefreshInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ISSDASH_CREW_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 60 {
			logger.Warn("invalid ISSDASH_CREW_INTERVAL value, using default", "value", v, "default", 3600)
		} else {
			cfg.CrewInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ISSDASH_ORBITAL_PERIOD_MIN"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			logger.Warn("invalid ISSDASH_ORBITAL_PERIOD_MIN value, using default", "value", v, "default", 92.68)
		} else {
			cfg.OrbitalPeriod = time.Duration(f * float64(time.Minute))
		}
	}

	logger.Info("poller config",
		"refresh_interval_seconds", cfg.RefreshInterval.Seconds(),
		"crew_interval_seconds", cfg.CrewInterval.Seconds(),
	)

	return cfg
}

func loadAPIConfig(logger *slog.Logger) api.Config {
	cfg := api.Config{
		MinElevationDeg:    10,
		NearbyToleranceDeg: 5,
	}

	if v := os.Getenv("ISSDASH_MIN_ELEVATION"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 90 {
			logger.Warn("invalid ISSDASH_MIN_ELEVATION value, using default", "value", v, "default", 10)
		} else {
			cfg.MinElevationDeg = f
		}
	}

	if v := os.Getenv("ISSDASH_NEARBY_TOLERANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			logger.Warn("invalid ISSDASH_NEARBY_TOLERANCE value, using default", "value", v, "default", 5)
		} else {
			cfg.NearbyToleranceDeg = f
		}
	}

	return cfg
}

func loadStreamConfig(logger *slog.Logger, refreshInterval time.Duration) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		MaxTotalStreams:    1000,
		UpdateInterval:     refreshInterval,
		KeepaliveInterval:  30 * time.Second,
	}

	if v := os.Getenv("ISSDASH_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSDASH_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("ISSDASH_STREAM_MAX_TOTAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSDASH_STREAM_MAX_TOTAL value, using default", "value", v, "default", 1000)
		} else {
			cfg.MaxTotalStreams = n
		}
	}

	if v := os.Getenv("ISSDASH_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSDASH_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ISSDASH_STREAM_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ISSDASH_STREAM_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"max_total_streams", cfg.MaxTotalStreams,
		"update_interval_seconds", cfg.UpdateInterval.Seconds(),
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
	)

	return cfg
}
