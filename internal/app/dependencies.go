// Package app wires the shared infrastructure and domain services used by the
// API, the worker and the tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-tenant-cart/internal/config"
	"github.com/noah-isme/toko-tenant-cart/internal/dbrouter"
	"github.com/noah-isme/toko-tenant-cart/internal/lock"
	"github.com/noah-isme/toko-tenant-cart/internal/obs"
	"github.com/noah-isme/toko-tenant-cart/internal/ratelimit"
	"github.com/noah-isme/toko-tenant-cart/internal/repo"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// Dependencies enumerates the infrastructure shared across modules.
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Pools    *dbrouter.Pools
	Redis    *redis.Client
	Registry *tenant.Registry
	Limiter  ratelimit.Allower
	Locker   lock.Locker

	shutdownTracer func(context.Context) error
}

// Open connects every database partition and Redis, applies migrations when
// configured and initialises tracing. Callers must Close the result.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger, service string) (*Dependencies, error) {
	d := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: tenant.NewRegistry(cfg.Tenants...),
	}

	shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   service,
		Endpoint:      cfg.OTelEndpoint,
		Exporter:      cfg.OTelExporter,
		SamplingRatio: cfg.OTelSampleRatio,
		Environment:   cfg.AppEnv,
		Tenants:       cfg.Tenants,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		d.shutdownTracer = shutdown
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	d.Pools, err = dbrouter.Open(connectCtx, dbrouter.Options{
		DefaultDSN:      cfg.DatabaseURL,
		TenantDSNs:      cfg.TenantDSNs,
		Tenants:         cfg.Tenants,
		ApplicationName: service,
		Logger:          logger,
	})
	if err != nil {
		d.Close()
		return nil, err
	}
	if err := d.Pools.Ping(connectCtx); err != nil {
		d.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if cfg.MigrateOnStart {
		if err := Migrate(d.Pools.DSNs(), logger); err != nil {
			d.Close()
			return nil, err
		}
	}

	d.Redis, err = NewRedis(connectCtx, cfg.RedisURL, logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Locker = lock.Locker{R: d.Redis, RetryBackoff: cfg.LockRetryBackoff}
	d.Limiter, err = NewLimiter(cfg, d.Redis)
	if err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// NewRedis opens an instrumented Redis client and pings it.
func NewRedis(ctx context.Context, url string, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewLimiter selects the rate limit strategy named in cfg.
func NewLimiter(cfg *config.Config, rdb *redis.Client) (ratelimit.Allower, error) {
	prefix := "ratelimit:"
	switch cfg.RateLimitStrategy {
	case "fixed":
		return ratelimit.NewFixedWindow(rdb, prefix)
	case "sliding", "":
		return ratelimit.SlidingWindow{Client: rdb, Prefix: prefix}, nil
	default:
		return nil, fmt.Errorf("unknown rate limit strategy %q", cfg.RateLimitStrategy)
	}
}

// Migrate applies the schema to every distinct partition DSN.
func Migrate(dsns map[string]string, logger zerolog.Logger) error {
	done := map[string]bool{}
	for id, dsn := range dsns {
		if done[dsn] {
			continue
		}
		done[dsn] = true
		if err := repo.Migrate(dsn); err != nil {
			return fmt.Errorf("migrate %s: %w", id, err)
		}
		logger.Info().Str("partition", id).Msg("migrations applied")
	}
	return nil
}

// TaskRedis returns the asynq connection options for the configured Redis.
func TaskRedis(cfg *config.Config) (asynq.RedisClientOpt, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}
	return asynq.RedisClientOpt{
		Network:   opts.Network,
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}, nil
}

// Close releases every opened resource. It is safe on a partially opened value.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	d.Pools.Close()
	if d.shutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.shutdownTracer(ctx); err != nil {
			d.Logger.Error().Err(err).Msg("shutdown tracer")
		}
	}
}
