// Package main is the entrypoint for the authoring service: authenticated
// link creation and allocator metrics.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoplink/hoplink/internal/auth"
	"github.com/hoplink/hoplink/internal/config"
	"github.com/hoplink/hoplink/internal/handler"
	"github.com/hoplink/hoplink/internal/metrics"
	"github.com/hoplink/hoplink/internal/middleware"
	"github.com/hoplink/hoplink/internal/repository"
	"github.com/hoplink/hoplink/internal/server"
	"github.com/hoplink/hoplink/internal/service"
	"github.com/hoplink/hoplink/internal/shortcode"
)

const version = "1.0.0"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Error("failed to ensure indexes", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to store", "database", cfg.MongoDatabase)

	recorder := metrics.NewInMemory()

	allocator := shortcode.New(repo, shortcode.Params{
		InitialLength:   cfg.URLShortCodeLength,
		MaxRetries:      cfg.URLMaxRetries,
		BaseRetryDelay:  10 * time.Millisecond,
		MaxRetryDelay:   500 * time.Millisecond,
		LengthGrowEvery: 3,
	}, recorder, logger)

	linkService := service.NewLinkService(allocator, cfg.URLDefaultTTL(), recorder, logger)

	verifier := auth.NewVerifier(cfg.JWTSecret)

	linkHandler := handler.NewLinkHandler(linkService, allocator, logger)
	healthHandler := handler.NewHealthHandler(cfg.AppName, version, map[string]handler.HealthChecker{
		"mongodb": repo,
	})

	router := setupRouter(cfg, logger, verifier, linkHandler, healthHandler)

	srv := server.New(router, cfg.AppPort,
		cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout, logger)

	srv.OnShutdown("store", func(ctx context.Context) error { return repo.Close(ctx) })

	logger.Info("starting authoring service", "port", cfg.AppPort, "env", cfg.AppEnv)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupRouter(
	cfg *config.Config,
	logger *slog.Logger,
	verifier *auth.Verifier,
	linkHandler *handler.LinkHandler,
	healthHandler *handler.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: config.SplitList(cfg.CORSAllowOrigins),
		AllowedMethods: config.SplitList(cfg.CORSAllowMethods),
		AllowedHeaders: config.SplitList(cfg.CORSAllowHeaders),
	}))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", healthHandler.Healthz)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(verifier, logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("user", "admin"))
			r.Post("/api/url/create", linkHandler.Create)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))
			r.Get("/api/url/metrics/collisions", linkHandler.CollisionMetrics)
		})
	})

	return r
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
