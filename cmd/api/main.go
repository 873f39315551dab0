package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/crm-assistant/cmd/mainconfig"
	"github.com/wolfman30/crm-assistant/internal/api/router"
	"github.com/wolfman30/crm-assistant/internal/app/bootstrap"
	appconfig "github.com/wolfman30/crm-assistant/internal/config"
	httpmiddleware "github.com/wolfman30/crm-assistant/internal/http/middleware"
	"github.com/wolfman30/crm-assistant/internal/observability/metrics"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

func main() {
	mainconfig.LoadEnvFiles()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting crm-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is empty; every assistant request will be rejected")
	}

	ctx := context.Background()

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	store, err := bootstrap.BuildRecordStore(ctx, cfg, pool, logger)
	if err != nil {
		logger.Error("failed to build record store", "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	deps := bootstrap.PerfLogDeps{Pool: pool}
	if bootstrap.NeedsAWS(cfg) {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		deps.AWS = &awsCfg
	}
	sink, err := bootstrap.BuildPerfLogSink(cfg, deps, logger)
	if err != nil {
		logger.Error("failed to configure performance log", "error", err)
		os.Exit(1)
	}

	metricsHandler, assistantMetrics := setupMetrics()

	app, err := bootstrap.BuildAssistant(cfg, store, redisClient, sink, assistantMetrics, logger)
	if err != nil {
		logger.Error("failed to build assistant", "error", err)
		os.Exit(1)
	}

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Assistant:          app.Command,
		TenantSelection:    app.TenantSelection,
		AuthSecret:         cfg.AuthJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		HealthChecks:       healthChecks(pool, redisClient),
	})

	srv := newServer(cfg.Port, r)

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers assistant and runtime collectors on a private registry.
func setupMetrics() (http.Handler, *metrics.AssistantMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewAssistantMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

func healthChecks(pool *pgxpool.Pool, redisClient *redis.Client) map[string]router.HealthCheck {
	checks := map[string]router.HealthCheck{}
	if pool != nil {
		checks["postgres"] = func(ctx context.Context) error { return pool.Ping(ctx) }
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	return checks
}

func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
