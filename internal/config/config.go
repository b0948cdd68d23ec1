// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	// Delivery origin and geocoding scope.
	OriginCity  string
	Country     string
	CountryCode string

	// External provider endpoints.
	NominatimURL string
	PhotonURL    string
	OSRMURL      string

	ProviderTimeout time.Duration
	RoadFactor      float64

	// Delivery charge tiers as "maxKm:charge" pairs, ascending by distance.
	DeliveryTiers     string
	FreeShippingAbove float64

	PriceTolerance float64

	SnapshotCacheTTL time.Duration
	QuoteCacheTTL    time.Duration

	// Background audit sweep.
	AuditInterval    time.Duration
	AuditBatchSize   int
	AuditConcurrency int
	AuditAutoRepair  bool

	RateLimitPerMinute int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		OriginCity:  valueOrDefault(k.String("DELIVERY_ORIGIN_CITY"), "Tirupur"),
		Country:     valueOrDefault(k.String("DELIVERY_COUNTRY"), "India"),
		CountryCode: valueOrDefault(k.String("DELIVERY_COUNTRY_CODE"), "in"),

		NominatimURL: valueOrDefault(k.String("GEOCODE_NOMINATIM_URL"), "https://nominatim.openstreetmap.org"),
		PhotonURL:    valueOrDefault(k.String("GEOCODE_PHOTON_URL"), "https://photon.komoot.io"),
		OSRMURL:      valueOrDefault(k.String("ROUTING_OSRM_URL"), "https://router.project-osrm.org"),

		ProviderTimeout: parseDuration(k.String("PROVIDER_TIMEOUT"), "8s"),
		RoadFactor:      parseFloat(k.String("ROAD_FACTOR"), 1.4),

		DeliveryTiers:     valueOrDefault(k.String("DELIVERY_TIERS"), "10:0,25:49,50:79,100:119,300:199"),
		FreeShippingAbove: parseFloat(k.String("FREE_SHIPPING_ABOVE"), 1999),

		PriceTolerance: parseFloat(k.String("PRICE_TOLERANCE"), 0.01),

		SnapshotCacheTTL: parseDuration(k.String("SNAPSHOT_CACHE_TTL"), "10m"),
		QuoteCacheTTL:    parseDuration(k.String("QUOTE_CACHE_TTL"), "15m"),

		AuditInterval:    parseDuration(k.String("AUDIT_INTERVAL"), "1h"),
		AuditBatchSize:   parseInt(k.String("AUDIT_BATCH_SIZE"), 200),
		AuditConcurrency: parseInt(k.String("AUDIT_CONCURRENCY"), 4),
		AuditAutoRepair:  parseBool(k.String("AUDIT_AUTO_REPAIR")),

		RateLimitPerMinute: parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 120),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
