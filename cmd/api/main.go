package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"jobdash/docs"
	"jobdash/internal/applog"
	"jobdash/internal/cache"
	"jobdash/internal/config"
	"jobdash/internal/database"
	"jobdash/internal/database/migration"
	handlers "jobdash/internal/http/handler"
	"jobdash/internal/http/middleware"
	"jobdash/internal/ner"
	"jobdash/internal/openfda"
	"jobdash/internal/otel"
	"jobdash/internal/repository"
	"jobdash/internal/repository/postgres"
	"jobdash/internal/repository/sqlite"
	"jobdash/internal/service"
	"jobdash/internal/storage"
)

// @title Job Dashboard API
// @version 1.0
// @description Job application tracker and openFDA adverse-event dashboard.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// One handle for the whole process; SQLite by default, PostgreSQL when DB_DRIVER=postgres
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.Run(ctx, db, cfg.Database.Driver, loc); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var appRepo repository.ApplicationRepository
	if cfg.Database.Driver == config.DriverPostgres {
		appRepo = postgres.NewApplicationPostgres(db)
	} else {
		appRepo = sqlite.NewApplicationSQLite(db)
	}

	extractor, err := ner.New(cfg.NER)
	if err != nil {
		log.Fatalf("failed to initialize entity extractor: %v", err)
	}

	var fetchCache cache.Cache = cache.NewMemory()
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer rdb.Close()
		fetchCache = cache.NewRedis(rdb, "jobdash:")
	}

	// Export archiving is optional; without MinIO settings archive=true answers 503
	var objStore storage.Storage
	if cfg.MinIO.Enabled() {
		objStore, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
	}

	appSvc := service.NewApplicationService(appRepo, extractor, objStore, loc)
	aeSvc := service.NewAdverseEventService(openfda.New(cfg.OpenFDA), fetchCache, cfg.Cache.TTL(), objStore, loc)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    10 * 1024 * 1024,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(loc))
	app.Use(prom.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:            db,
		Applications:  appSvc,
		AdverseEvents: aeSvc,
		Gatherer:      reg,
		Location:      loc,
	})

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

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			applog.Warn(loc, "http", "shutdown_failed", err)
		}
	}()

	applog.Log(loc, map[string]any{
		"msg":        "server_starting",
		"port":       cfg.Port,
		"db_driver":  cfg.Database.Driver,
		"ner":        extractor.Name(),
		"archiving":  objStore != nil,
		"redis_used": cfg.Cache.RedisAddr != "",
	})

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
