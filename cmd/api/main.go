package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kythia/dashboard-backend/api/routes"
	"github.com/kythia/dashboard-backend/internal/botapi"
	"github.com/kythia/dashboard-backend/internal/licenses"
	"github.com/kythia/dashboard-backend/internal/visitors"
	"github.com/kythia/dashboard-backend/pkg/auth/session"
	"github.com/kythia/dashboard-backend/pkg/config"
	"github.com/kythia/dashboard-backend/pkg/db"
	"github.com/kythia/dashboard-backend/pkg/logger"
	"github.com/kythia/dashboard-backend/pkg/metrics"
	"github.com/kythia/dashboard-backend/pkg/migrate"
	"github.com/kythia/dashboard-backend/pkg/ratelimit"
	redisclient "github.com/kythia/dashboard-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redisclient.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	licenseRepo := licenses.NewRepository(dbClient.DB())
	licenseService, err := licenses.NewService(licenseRepo, logg, cfg.License.KeyPrefix, cfg.License.SuspendedTelemetry)
	if err != nil {
		logg.Error(context.Background(), "failed to create license service", err)
		os.Exit(1)
	}

	visitorService, err := visitors.NewService(visitors.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create visitor service", err)
		os.Exit(1)
	}

	botClient, err := botapi.NewClient(cfg.BotAPI, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create bot api client", err)
		os.Exit(1)
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Distributed {
		limiter, err = ratelimit.NewFixedWindow(redisClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create rate limiter", err)
			os.Exit(1)
		}
	} else {
		limiter = ratelimit.NewSlidingWindow()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			sessionManager,
			limiter,
			httpMetrics,
			registry,
			licenseService,
			visitorService,
			botClient,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
