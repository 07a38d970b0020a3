package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Source cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ReportSource       string
	SourceTimeout      time.Duration
	SourceCacheTTL     time.Duration
	SourceCacheBackend string
	SourceCacheSize    int
	RedisAddr          string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	MapDefaultLat  float64
	MapDefaultLon  float64
	MapDefaultZoom int

	SessionIdleTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	GeocodeRegion   string

	// Optional snapshot export.
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := parseDuration("SOURCE_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	if sourceTimeout < time.Second || sourceTimeout > 2*time.Minute {
		return nil, errors.New("SOURCE_TIMEOUT must be between 1s and 2m")
	}

	cacheTTL, err := parseDuration("SOURCE_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}

	idleTimeout, err := parseDuration("SESSION_IDLE_TIMEOUT", "30m")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	defaultLat, err := parseFloat("MAP_DEFAULT_LAT", "-5.1990", -90, 90)
	if err != nil {
		return nil, err
	}
	defaultLon, err := parseFloat("MAP_DEFAULT_LON", "-39.2927", -180, 180)
	if err != nil {
		return nil, err
	}
	zoom, err := parsePositiveInt("MAP_DEFAULT_ZOOM", "12")
	if err != nil {
		return nil, err
	}
	sourceCacheSize, err := parsePositiveInt("SOURCE_CACHE_SIZE", "32")
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		ReportSource:       sharedcfg.EnvOrDefault("REPORT_SOURCE", "fiscaliza.csv"),
		SourceTimeout:      sourceTimeout,
		SourceCacheTTL:     cacheTTL,
		SourceCacheBackend: strings.ToLower(sharedcfg.EnvOrDefault("SOURCE_CACHE_BACKEND", CacheBackendMemory)),
		SourceCacheSize:    sourceCacheSize,
		RedisAddr:          os.Getenv("REDIS_ADDR"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapDefaultLat:  defaultLat,
		MapDefaultLon:  defaultLon,
		MapDefaultZoom: zoom,

		SessionIdleTimeout: idleTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
		GeocodeRegion:   sharedcfg.EnvOrDefault("GEOCODE_REGION", "Quixeramobim, Ceará, Brasil"),

		KafkaBrokers:   parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "denuncias-normalized"),
	}

	if strings.TrimSpace(cfg.ReportSource) == "" {
		return nil, errors.New("REPORT_SOURCE is required")
	}
	switch cfg.SourceCacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("SOURCE_CACHE_BACKEND is redis but REDIS_ADDR is not set")
		}
	default:
		return nil, fmt.Errorf("invalid SOURCE_CACHE_BACKEND %q", cfg.SourceCacheBackend)
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// PublishEnabled reports whether loads are exported to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parsePositiveInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
