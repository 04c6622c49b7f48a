package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/toko-tenant-cart/internal/app"
	"github.com/noah-isme/toko-tenant-cart/internal/config"
	"github.com/noah-isme/toko-tenant-cart/internal/obs"
	"github.com/noah-isme/toko-tenant-cart/internal/sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Open(ctx, cfg, logger, "toko-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	redisOpt, err := app.TaskRedis(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse task redis")
	}

	svcs := app.NewServices(cfg, deps.Pools.Router, deps.Redis, &logger)
	handler := &sweep.Handler{
		Carts:   svcs.Cart,
		Locker:  deps.Locker,
		LockTTL: cfg.LockTTL,
		Logger:  logger,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{sweep.Queue: 1},
		Logger:      obs.AsynqLogger{Logger: logger},
	})
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: obs.AsynqLogger{Logger: logger}})

	tenants := deps.Registry.List()
	entries, err := sweep.Register(scheduler, cfg.CartSweepCron, tenants, cfg.CartAbandonDays)
	if err != nil {
		logger.Fatal().Err(err).Msg("schedule cart sweep")
	}
	logger.Info().Strs("tenants", tenants).Int("entries", len(entries)).Str("cron", cfg.CartSweepCron).Msg("cart sweep scheduled")

	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	if err := srv.Start(sweep.NewServeMux(handler)); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	logger.Info().Msg("worker starting")
	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}
