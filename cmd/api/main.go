package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idrepo/docs"
	"idrepo/internal/config"
	"idrepo/internal/database"
	"idrepo/internal/database/migration"
	"idrepo/internal/hashing"
	handlers "idrepo/internal/http/handler"
	"idrepo/internal/http/middleware"
	appotel "idrepo/internal/otel"
	"idrepo/internal/repository/postgres"
	"idrepo/internal/service"
	"idrepo/internal/shard"
	"idrepo/internal/storage"
)

// @title Identity Repository API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	if cfg.Repo.HashKey == "" {
		log.Fatal("HASH_KEY is required")
	}

	ctx := context.Background()

	shutdownTracing, err := appotel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() { _ = shutdownTracing(ctx) }()

	// One connection pool per shard database (pooling via database/sql)
	pools, err := database.NewShardPools(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		for _, p := range pools {
			_ = p.DB.Close()
		}
	}()

	for _, p := range pools {
		if err := migration.EnsureMigrated(ctx, p.DB, time.UTC, p.Name); err != nil {
			log.Fatalf("failed to migrate shard %s: %v", p.Name, err)
		}
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	blobs, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Wire the core: router, hashing, ledger, repository, service
	shards := make([]shard.Context, len(pools))
	for i, p := range pools {
		shards[i] = shard.Context{Name: p.Name, DB: p.DB}
	}
	router := shard.NewRouter(shards)
	hasher := hashing.New([]byte(cfg.Repo.HashKey))
	repo := postgres.NewIdentityPostgres(postgres.NewHistoryPostgres())
	svc := service.NewIdentityService(router, repo, blobs, hasher, cfg.Repo)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, pools, svc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
