// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	LogFormat          string
	LogLevel           string
	MigrateOnStart     bool
	MaxBodyBytes       int64

	Tenants          []string
	TenantDSNs       map[string]string
	TenantHeader     string
	TenantRootDomain string
	TenantStrict     bool

	CatalogCacheTTL   time.Duration
	CatalogPageSize   int
	CartAbandonDays   int
	CartSweepCron     string
	IdempotencyTTL    time.Duration
	LockTTL           time.Duration
	LockRetryBackoff  time.Duration
	RateLimitMax      int
	RateLimitWindow   time.Duration
	RateLimitStrategy string

	MetricsNamespace    string
	HTTPDurationBuckets string
	OTelExporter        string
	OTelEndpoint        string
	OTelSampleRatio     float64
}

// Load reads the process environment, after merging an optional .env file,
// and validates the result. Every problem found is reported at once.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	e := envReader{k: k}

	cfg := &Config{
		AppEnv:             e.str("APP_ENV", "development"),
		Port:               e.str("PORT", "8080"),
		DatabaseURL:        e.str("DATABASE_URL", ""),
		RedisURL:           e.str("REDIS_URL", ""),
		CORSAllowedOrigins: e.list("CORS_ALLOWED_ORIGINS"),
		LogFormat:          e.str("LOG_FORMAT", "json"),
		LogLevel:           e.str("LOG_LEVEL", "info"),
		MigrateOnStart:     e.flag("MIGRATE_ON_START"),
		MaxBodyBytes:       int64(e.num("MAX_BODY_BYTES", 1<<20)),

		Tenants:          e.list("TENANTS"),
		TenantHeader:     e.str("TENANT_HEADER", "X-Tenant-ID"),
		TenantRootDomain: e.str("TENANT_ROOT_DOMAIN", ""),
		TenantStrict:     e.flag("TENANT_STRICT"),

		CatalogCacheTTL:   e.dur("CATALOG_CACHE_TTL", 5*time.Minute),
		CatalogPageSize:   e.num("CATALOG_PAGE_SIZE", 20),
		CartAbandonDays:   e.num("CART_ABANDON_DAYS", 7),
		CartSweepCron:     e.str("CART_SWEEP_CRON", "@every 1h"),
		IdempotencyTTL:    e.dur("IDEMPOTENCY_TTL", 24*time.Hour),
		LockTTL:           e.dur("LOCK_TTL", 5*time.Minute),
		LockRetryBackoff:  e.dur("LOCK_RETRY_BACKOFF", 50*time.Millisecond),
		RateLimitMax:      e.num("RATE_LIMIT_MAX", 120),
		RateLimitWindow:   e.dur("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitStrategy: strings.ToLower(e.str("RATE_LIMIT_STRATEGY", "sliding")),

		MetricsNamespace:    e.str("METRICS_NAMESPACE", "toko"),
		HTTPDurationBuckets: e.str("HTTP_DURATION_BUCKETS", ""),
		OTelExporter:        e.str("OTEL_EXPORTER", "none"),
		OTelEndpoint:        e.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelSampleRatio:     e.ratio("OTEL_SAMPLE_RATIO", 1),
	}
	cfg.TenantDSNs = make(map[string]string, len(cfg.Tenants))
	for _, id := range cfg.Tenants {
		if dsn := e.str(TenantDSNKey(id), ""); dsn != "" {
			cfg.TenantDSNs[id] = dsn
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load for command entrypoints that cannot continue without config.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required"))
	}
	if c.CartAbandonDays < 0 {
		errs = append(errs, errors.New("CART_ABANDON_DAYS must not be negative"))
	}
	for _, id := range c.Tenants {
		if id != tenant.DefaultID && c.TenantDSNs[id] == "" {
			errs = append(errs, fmt.Errorf("%s is required for tenant %q", TenantDSNKey(id), id))
		}
	}
	if c.RateLimitStrategy != "sliding" && c.RateLimitStrategy != "fixed" {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_STRATEGY %q is not one of sliding, fixed", c.RateLimitStrategy))
	}
	return errors.Join(errs...)
}

// TenantDSNKey names the variable holding the dedicated database of tenant
// id: TENANT_<ID>_DATABASE_URL with id upper-cased and every character other
// than A-Z and 0-9 replaced by '_'. Every named tenant needs one; setting it
// to DATABASE_URL shares the default database deliberately.
func TenantDSNKey(id string) string {
	name := strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.ToUpper(id))
	return "TENANT_" + name + "_DATABASE_URL"
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}

// envReader reads trimmed values from k, falling back when a value is
// missing or does not parse.
type envReader struct {
	k *koanf.Koanf
}

func (e envReader) str(key, fallback string) string {
	if v := strings.TrimSpace(e.k.String(key)); v != "" {
		return v
	}
	return fallback
}

func (e envReader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(e.k.String(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e envReader) dur(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key, "")); err == nil {
		return d
	}
	return fallback
}

func (e envReader) num(key string, fallback int) int {
	if n, err := strconv.Atoi(e.str(key, "")); err == nil {
		return n
	}
	return fallback
}

func (e envReader) ratio(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(e.str(key, ""), 64); err == nil {
		return f
	}
	return fallback
}

func (e envReader) flag(key string) bool {
	switch strings.ToLower(e.str(key, "")) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
