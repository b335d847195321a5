package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pitwall-labs/pitwall-engine/pkg/config"
	"github.com/pitwall-labs/pitwall-engine/pkg/database"
	"github.com/pitwall-labs/pitwall-engine/pkg/handlers"
	"github.com/pitwall-labs/pitwall-engine/pkg/logging"
	"github.com/pitwall-labs/pitwall-engine/pkg/middleware"
	"github.com/pitwall-labs/pitwall-engine/pkg/provider"
	"github.com/pitwall-labs/pitwall-engine/pkg/repositories"
	"github.com/pitwall-labs/pitwall-engine/pkg/services"
	"github.com/pitwall-labs/pitwall-engine/pkg/services/workqueue"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("provider", cfg.Provider.BaseURL),
		zap.String("provider_cache", cfg.Provider.CacheDir),
		zap.Bool("redis_enabled", cfg.Redis.Host != ""))

	// The provider response cache is process-wide; enable it once before
	// any worker can fetch.
	if err := provider.EnableCache(cfg.Provider.CacheDir); err != nil {
		logger.Fatal("Failed to enable provider cache", zap.Error(err))
	}

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	providerClient := provider.NewHTTPClient(cfg.Provider.BaseURL, logger)
	defer providerClient.Close()

	queue := workqueue.New(logger,
		workqueue.WithStrategy(workqueue.NewThrottledProviderStrategy(cfg.Ingest.MaxConcurrent)))
	tracker := services.NewJobTracker(queue, redisClient, logger)

	ingestService := services.NewIngestService(db, providerClient, cfg.Ingest.Source, logger)
	resultRepo := repositories.NewResultRepository(db)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	resultsHandler := handlers.NewResultsHandler(resultRepo, providerClient, cfg.Ingest.Source, cfg.Ingest.FirstSeason, logger)
	resultsHandler.RegisterRoutes(mux)

	jobsHandler := handlers.NewJobsHandler(ingestService, tracker, logger)
	jobsHandler.RegisterRoutes(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting pitwall-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
