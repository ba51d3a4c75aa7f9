package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zfogg/formdesk/internal/cache"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/container"
	"github.com/zfogg/formdesk/internal/database"
	"github.com/zfogg/formdesk/internal/email"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/handlers"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/metrics"
	"github.com/zfogg/formdesk/internal/middleware"
	"github.com/zfogg/formdesk/internal/storage"
	"github.com/zfogg/formdesk/internal/telemetry"
	"github.com/zfogg/formdesk/internal/validation"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(logger.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: cfg.Log.Console,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("Formdesk server starting", zap.String("environment", cfg.Environment))

	if err := run(cfg); err != nil {
		logger.FatalWithFields("Server failed", err)
	}
	logger.Log.Info("Server exited")
}

func run(cfg *config.Config) error {
	metrics.Initialize()

	tp, err := telemetry.InitTracer(cfg.Telemetry, cfg.Environment)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	if err := database.Initialize(cfg.Database); err != nil {
		return err
	}
	if cfg.Telemetry.Enabled {
		if err := database.DB.Use(telemetry.GORMTracingPlugin()); err != nil {
			return fmt.Errorf("database tracing: %w", err)
		}
	}
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	c := container.New().
		WithDB(database.DB).
		WithLogger(logger.Log)
	c.OnCleanup(func(context.Context) error { return database.Close() })
	if tp != nil {
		c.OnCleanup(tp.Shutdown)
	}

	checks := map[string]validation.Check{
		"database": func(context.Context) error { return database.Health() },
	}

	// Redis backs the shared caches and rate limits; a single instance can
	// run on the in-process store.
	var store cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, using in-memory cache", zap.Error(err))
		} else {
			store = redisClient
			checks["redis"] = redisClient.Ping
			c.OnCleanup(func(context.Context) error { return redisClient.Close() })
		}
	}
	c.WithCache(store)

	formClient := formio.NewClient(cfg.Formio)
	checks["formio"] = formClient.Ping
	c.WithForms(formio.NewCachedClient(formClient, store, cfg.Formio.CacheTTL))

	ctx := context.Background()
	if cfg.AWS.S3Bucket != "" {
		uploader, err := storage.NewS3Uploader(ctx, cfg.AWS.Region, cfg.AWS.S3Bucket)
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		checks["s3"] = uploader.CheckBucketAccess
		c.WithUploader(uploader)
	} else {
		logger.Log.Warn("S3_BUCKET not set, results exports are disabled")
	}

	if cfg.IsProduction() {
		sender, err := email.NewEmailService(cfg.AWS.Region, cfg.AWS.SESFromEmail, cfg.AWS.SESFromName, cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("ses: %w", err)
		}
		c.WithNotifier(sender)
	}

	if err := c.Wire(cfg); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	if err := validation.NewServiceValidator(cfg.RequiredServices, checks).ValidateServices(ctx); err != nil {
		return err
	}
	if err := validation.RegisterBindings(); err != nil {
		return fmt.Errorf("validator bindings: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if cfg.Telemetry.Enabled {
		r.Use(middleware.TracingMiddleware(cfg.Telemetry.ServiceName))
		r.Use(middleware.CorrelationMiddleware())
		r.Use(middleware.SpanEnrichmentMiddleware())
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Impersonate-User"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-Cache", "X-RateLimit-Remaining"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers.NewHandlers(c, cfg.Formio.CacheTTL)
	h.SetHealthChecks(checks)
	h.RegisterRoutes(r, c, cfg.RateLimit)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Formdesk API listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Log.Info("Shutting down server...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	return c.Cleanup(shutdownCtx)
}
