package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/denuncia-map-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/denuncia-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/denuncia-map-service/internal/adapter/mapbox"
	redisadapter "github.com/couchcryptid/denuncia-map-service/internal/adapter/redis"
	"github.com/couchcryptid/denuncia-map-service/internal/adapter/source"
	"github.com/couchcryptid/denuncia-map-service/internal/config"
	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/couchcryptid/denuncia-map-service/internal/observability"
	"github.com/couchcryptid/denuncia-map-service/internal/pipeline"
	"github.com/couchcryptid/denuncia-map-service/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Source fetchers: local files are read directly, remote exports are cached.
	var store source.PayloadStore
	checks := readinessChecks{}
	switch cfg.SourceCacheBackend {
	case config.CacheBackendRedis:
		rs, err := redisadapter.Open(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		store = rs
		checks = append(checks, rs)
		logger.Info("source cache backend: redis", "addr", cfg.RedisAddr, "ttl", cfg.SourceCacheTTL)
	default:
		store = source.NewMemoryStore(cfg.SourceCacheSize, nil)
		logger.Info("source cache backend: memory", "size", cfg.SourceCacheSize, "ttl", cfg.SourceCacheTTL)
	}
	fetcher := &source.Router{
		Local: source.NewFileFetcher(metrics),
		Remote: source.NewCachedFetcher(
			source.NewHTTPFetcher(cfg.SourceTimeout, logger, metrics),
			store, cfg.SourceCacheTTL, logger, metrics,
		),
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout, "region", cfg.GeocodeRegion)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	transformer := pipeline.NewTransformer(geocoder, cfg.GeocodeRegion, logger)
	loader := pipeline.New(fetcher, pipeline.DecoderFunc(source.DecodeTable), transformer, publisher, logger, metrics)
	checks = append(checks, loader)

	sessions := session.NewManager(session.ManagerConfig{
		Source: cfg.ReportSource,
		Loader: loader,
		Defaults: session.MapDefaults{
			Center: domain.Geo{Lat: cfg.MapDefaultLat, Lon: cfg.MapDefaultLon},
			Zoom:   cfg.MapDefaultZoom,
		},
		IdleTimeout: cfg.SessionIdleTimeout,
		Logger:      logger,
		Metrics:     metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.SourceTimeout+30*time.Second, checks, sessions, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the source cache and flip readiness without waiting for a session.
	go func() {
		if _, err := loader.Load(ctx, cfg.ReportSource, pipeline.LoadOptions{}); err != nil {
			logger.Warn("initial load failed, sessions will retry", "source", cfg.ReportSource, "error", err)
		}
	}()

	go sessions.RunSweeper(ctx, sweepInterval(cfg.SessionIdleTimeout))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readinessChecks is ready when every check passes.
type readinessChecks []sharedobs.ReadinessChecker

func (r readinessChecks) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func sweepInterval(idle time.Duration) time.Duration {
	if d := idle / 4; d > time.Minute {
		return d
	}
	return time.Minute
}
