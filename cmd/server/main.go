package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zfogg/snapshare/internal/cache"
	"github.com/zfogg/snapshare/internal/config"
	"github.com/zfogg/snapshare/internal/container"
	"github.com/zfogg/snapshare/internal/database"
	"github.com/zfogg/snapshare/internal/handlers"
	"github.com/zfogg/snapshare/internal/intelligence"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/metrics"
	"github.com/zfogg/snapshare/internal/middleware"
	"github.com/zfogg/snapshare/internal/storage"
	"github.com/zfogg/snapshare/internal/telemetry"
	"go.uber.org/zap"
)

const serviceName = "snapshare-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("=== Snapshare server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("moderation", cfg.ModerationEnabled))

	metrics.Initialize()

	c, err := buildContainer(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", err)
	}

	router := newRouter(cfg, c)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads of up to 10 MiB per file need a generous read window
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Log.Info("Snapshare backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	if err := c.Close(ctx); err != nil {
		logger.Error("Cleanup failed", err)
	}

	logger.Log.Info("Server exited")
}

// buildContainer connects every collaborator and registers its shutdown
func buildContainer(ctx context.Context, cfg *config.Config) (*container.Container, error) {
	c := container.New().SetLogger(logger.Log)

	tp, err := telemetry.InitTracer(ctx, telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		Enabled:      cfg.Tracing.Enabled,
		SamplingRate: cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	c.OnCleanup(func(ctx context.Context) error { return telemetry.Shutdown(ctx, tp) })

	db, err := database.Open(cfg.Database, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	c.OnCleanup(func(context.Context) error { return database.Close(db) })

	if cfg.Tracing.Enabled {
		if err := db.Use(telemetry.GORMTracingPlugin()); err != nil {
			return nil, fmt.Errorf("failed to register GORM tracing: %w", err)
		}
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	c.SetDB(db)

	backend, err := storage.NewBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	c.SetStorage(backend)

	var opts []intelligence.Option
	if cfg.Redis.Host != "" {
		rc, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			// The cache only saves model calls
			logger.Log.Warn("Redis unavailable, analysis cache disabled", zap.Error(err))
		} else {
			c.SetCache(rc)
			c.OnCleanup(func(context.Context) error { return rc.Close() })
			opts = append(opts, intelligence.WithCache(cache.NewAnalysisCache(rc)))
		}
	}
	if cfg.AI.APIKey == "" {
		logger.Log.Warn("OPENAI_API_KEY not set; image analysis will return empty results")
	}
	c.SetAnalyzer(intelligence.NewClient(cfg.AI, opts...))

	c.SetAuthenticator(middleware.NewAuthenticator(cfg.JWTSecret))

	if err := c.Build(cfg.ModerationEnabled); err != nil {
		return nil, err
	}
	return c, nil
}

func newRouter(cfg *config.Config, c *container.Container) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	if cfg.Tracing.Enabled {
		r.Use(middleware.TracingMiddleware(serviceName)...)
	}
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	r.Use(cors.New(corsConfig))

	// Images are already compressed
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{"^/uploads/", "^/metrics$"})))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Storage.Backend == config.StorageLocal {
		r.Static(cfg.Storage.UploadURLPrefix, cfg.Storage.UploadDir)
	}

	handlers.NewHandlers(c).RegisterRoutes(r, c.Authenticator())
	return r
}
