// Package main is the entrypoint for the redirect service: the redirect hot
// path, click ingestion, link info lookups and the dashboard API.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/hoplink/hoplink/internal/auth"
	"github.com/hoplink/hoplink/internal/broker"
	"github.com/hoplink/hoplink/internal/cache"
	"github.com/hoplink/hoplink/internal/config"
	"github.com/hoplink/hoplink/internal/geoip"
	"github.com/hoplink/hoplink/internal/handler"
	"github.com/hoplink/hoplink/internal/metrics"
	"github.com/hoplink/hoplink/internal/middleware"
	"github.com/hoplink/hoplink/internal/repository"
	"github.com/hoplink/hoplink/internal/server"
	"github.com/hoplink/hoplink/internal/service"
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

	cacheClient, err := cache.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to cache", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to cache", "addr", cfg.RedisAddr())

	brk, err := broker.Connect(cfg.RabbitURL, logger)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	// Wrong topology is a deployment error; refuse to start on it.
	if err := brk.DeclareQueues(cfg.QueueClickEvents, cfg.QueueDashboardRequest); err != nil {
		logger.Error("failed to declare queues", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to broker")

	keys := cache.NewKeys(cfg.AppName)
	recorder := metrics.NewInMemory()

	geoResolver := geoip.New(cacheClient, keys, cfg.GeoIPAPIURL,
		cfg.GeoIPTimeout, cfg.RedisCacheTTL, logger)

	redirectService := service.NewRedirectService(repo, cacheClient, keys,
		cfg.RedisCacheTTL/5, cfg.RedisCacheTTL, cfg.RedisInvalidationFlagTTL,
		recorder, logger)
	clickService := service.NewClickService(repo, geoResolver, brk,
		cfg.QueueClickEvents, recorder, logger)
	dashboardService := service.NewDashboardService(cacheClient, brk, keys,
		cfg.QueueDashboardRequest, cfg.RabbitRPCTimeout, cfg.RedisCacheTTL,
		recorder, logger)

	verifier := auth.NewVerifier(cfg.JWTSecret)

	redirectHandler := handler.NewRedirectHandler(redirectService, clickService,
		cfg.ClickTrackingTimeout, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	healthHandler := handler.NewHealthHandler(cfg.AppName, version, map[string]handler.HealthChecker{
		"mongodb": repo,
		"redis":   cacheClient,
	})

	router := setupRouter(cfg, logger, verifier, redirectHandler, dashboardHandler, healthHandler)

	srv := server.New(router, cfg.AppPort,
		cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout, logger)

	// LIFO: the broker channel goes first, the store last.
	srv.OnShutdown("store", func(ctx context.Context) error { return repo.Close(ctx) })
	srv.OnShutdown("cache", func(context.Context) error { return cacheClient.Close() })
	srv.OnShutdown("broker connection", func(context.Context) error { return brk.Close() })
	srv.OnShutdown("broker channel", func(context.Context) error { return brk.CloseChannel() })

	logger.Info("starting redirect service", "port", cfg.AppPort, "env", cfg.AppEnv)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupRouter(
	cfg *config.Config,
	logger *slog.Logger,
	verifier *auth.Verifier,
	redirectHandler *handler.RedirectHandler,
	dashboardHandler *handler.DashboardHandler,
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

	r.Get("/r/{shortUrl}", redirectHandler.Redirect)
	r.Get("/api/info/{shortUrl}", redirectHandler.Info)

	// The dashboard is gated on authentication only; any valid bearer token
	// may read its owner's dashboard.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(verifier, logger))

		r.Get("/api/dashboard", dashboardHandler.Get)
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
