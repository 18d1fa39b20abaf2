package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	fiberRecover "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movie-discovery-recommender/internal/config"
	"movie-discovery-recommender/internal/database"
	"movie-discovery-recommender/internal/handler"
	"movie-discovery-recommender/internal/logging"
	"movie-discovery-recommender/internal/middleware"
	"movie-discovery-recommender/internal/recommend"
	"movie-discovery-recommender/internal/repository"
	"movie-discovery-recommender/internal/service"
	"movie-discovery-recommender/internal/tmdb"
)

const appName = "recommender"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel, true))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, dialect, err := database.Open(cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}

	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without cache or rate limiting", "error", err)
	}

	store := repository.NewSQLStore(db, dialect)
	catalog := tmdb.NewClient(cfg.TMDB, rdb)

	userSvc := service.NewUserService(store, rdb)
	recSvc := service.NewRecommendationService(store, catalog, recommend.Options{
		SeedLimit:        cfg.Engine.SeedLimit,
		TargetPoolSize:   cfg.Engine.TargetPoolSize,
		MaxFallbackPages: cfg.Engine.MaxFallbackPages,
		HydrateWorkers:   cfg.Engine.HydrateWorkers,
	})

	app := handler.NewApp(appName)

	// Global middleware
	app.Use(fiberRecover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(middleware.NewRateLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.WindowSeconds).Handler())
	app.Use(middleware.AuthMiddleware())

	swaggerYAML, err := os.ReadFile("docs/swagger.yaml")
	if err != nil {
		slog.Warn("OpenAPI document not found, swagger UI will be unavailable", "error", err)
	} else if err := handler.RegisterSwagger(app, "Recommender API", swaggerYAML); err != nil {
		slog.Warn("swagger UI disabled", "error", err)
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handler.RegisterRoutes(app,
		handler.NewUserHandler(userSvc),
		handler.NewRecommendationHandler(recSvc),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("recommender starting", "port", cfg.Port, "store", dialect)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down recommender...")

	if err := app.Shutdown(); err != nil {
		slog.Error("error shutting down HTTP server", "error", err)
	}
	slog.Info("HTTP server stopped")

	if err := db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("error closing Redis connection", "error", err)
		}
	}

	slog.Info("recommender shutdown complete")
}
