package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/toko-tenant-cart/internal/app"
	"github.com/noah-isme/toko-tenant-cart/internal/cart"
	"github.com/noah-isme/toko-tenant-cart/internal/catalog"
	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/config"
	"github.com/noah-isme/toko-tenant-cart/internal/health"
	apimw "github.com/noah-isme/toko-tenant-cart/internal/http/middleware"
	"github.com/noah-isme/toko-tenant-cart/internal/obs"
	"github.com/noah-isme/toko-tenant-cart/internal/pricing"
	"github.com/noah-isme/toko-tenant-cart/internal/promotion"
	"github.com/noah-isme/toko-tenant-cart/internal/ratelimit"
	tenantservices "github.com/noah-isme/toko-tenant-cart/internal/services/tenant"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Open(ctx, cfg, logger, "toko-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	svcs := app.NewServices(cfg, deps.Pools.Router, deps.Redis, &logger)
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: svcs.Catalog})
	pricingHandler := &pricing.Handler{Svc: svcs.Pricing}
	promotionHandler := &promotion.Handler{Svc: svcs.Promotions}
	cartHandler := &cart.Handler{Svc: svcs.Cart, AbandonDays: cfg.CartAbandonDays, Idempotency: idem.Middleware}
	tenantHandler := &tenantservices.Handler{Registry: deps.Registry}

	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.HTTPDurationBuckets), nil)
	limiter := ratelimit.Handler{
		Limiter: deps.Limiter,
		Config:  ratelimit.Config{Key: ratelimit.TenantClientKey, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimw.SecureHeaders)
	r.Use(tenant.NewResolver(cfg.TenantHeader, cfg.TenantRootDomain, tenant.DefaultID).Middleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", cfg.TenantHeader, cart.SessionHeader, cart.UserHeader, "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count", cart.SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := health.Handler{Probes: health.Deps{DB: deps.Pools, Redis: deps.Redis}.Probes()}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(limiter.Middleware)
		api.Use(apimw.BodyLimit(cfg.MaxBodyBytes))
		if cfg.TenantStrict {
			api.Use(apimw.RequireRegistered(deps.Registry))
		}
		api.Route("/tenants", tenantHandler.Register)
		api.Route("/products", catalogHandler.Register)
		api.Route("/prices", pricingHandler.Register)
		api.Route("/promotions", promotionHandler.Register)
		api.Route("/cart", cartHandler.Register)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Strs("tenants", deps.Registry.List()).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
