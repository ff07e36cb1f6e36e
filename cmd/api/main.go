package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"resourcehub/docs"
	"resourcehub/internal/auth"
	"resourcehub/internal/config"
	"resourcehub/internal/database"
	"resourcehub/internal/database/migration"
	handlers "resourcehub/internal/http/handler"
	"resourcehub/internal/http/middleware"
	"resourcehub/internal/kv"
	"resourcehub/internal/kv/miniostore"
	"resourcehub/internal/kv/sqlstore"
	"resourcehub/internal/logger"
	"resourcehub/internal/otel"
	"resourcehub/internal/service"
)

// @title						Resource Hub API
// @version					1.0
// @description				Upload, list, download and delete shared resources.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	store, closeStore, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svcMetrics, err := service.NewMetrics(reg)
	if err != nil {
		log.Fatal("failed to register service metrics", zap.Error(err))
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("failed to register http metrics", zap.Error(err))
	}

	resourceSvc := service.NewResourceService(store,
		service.WithLogger(log),
		service.WithMetrics(svcMetrics),
		service.WithMaxUploadSize(cfg.Upload.MaxSize),
		service.WithScope(cfg.Upload.Scope),
	)

	provider := auth.NewProvider(cfg.Auth, nil)
	var verifier auth.Verifier = provider
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret), "authenticated")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log),
		// Multipart framing needs headroom above the payload limit; the
		// service enforces the exact limit.
		BodyLimit:    int(cfg.Upload.MaxSize) + 1<<20,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		ExposeHeaders: "Content-Disposition, X-Request-ID",
	}))

	var pinger kv.Pinger
	if p, ok := store.(kv.Pinger); ok {
		pinger = p
	}
	handlers.RegisterRoutes(app, handlers.Deps{
		Resources: resourceSvc,
		Accounts:  provider,
		Verifier:  verifier,
		Pinger:    pinger,
		Log:       log,
		BasePath:  cfg.BasePath,
	})

	app.Get(cfg.BasePath+"/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Swagger UI with dynamic host and scheme
	docs.SwaggerInfo.BasePath = cfg.BasePath + "/"
	app.Get(cfg.BasePath+"/swagger/*", func(c *fiber.Ctx) error {
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
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Error("http shutdown failed", zap.Error(err))
		}
		if err := shutdownTracing(sctx); err != nil {
			log.Error("tracing shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	log.Info("starting server",
		zap.String("addr", addr),
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("scope", cfg.Upload.Scope),
		zap.Bool("local_jwt", cfg.Auth.JWTSecret != ""),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

// openStore builds the configured key-value backend, running schema
// migrations for the SQL dialects.
func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (kv.Store, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return kv.NewMemory(), noop, nil

	case config.BackendMinIO:
		s, err := miniostore.New(cfg.MinIO)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case config.BackendPostgres, config.BackendSQLite:
		var (
			db      *sql.DB
			dialect database.Dialect
			err     error
		)
		if cfg.Backend == config.BackendSQLite {
			dialect = database.SQLite
			db, err = database.NewSQLite(cfg.SQLite)
		} else {
			dialect = database.Postgres
			db, err = database.NewPostgres(cfg.Database)
		}
		if err != nil {
			return nil, noop, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Error("failed to close database", zap.Error(err))
			}
		}

		if err := migration.EnsureMigrated(ctx, db, dialect, log); err != nil {
			closeDB()
			return nil, noop, fmt.Errorf("migrate: %w", err)
		}
		s, err := sqlstore.New(db, dialect)
		if err != nil {
			closeDB()
			return nil, noop, err
		}
		return s, closeDB, nil
	}
	return nil, noop, errors.New("unknown store backend: " + cfg.Backend)
}
