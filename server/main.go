package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-upscaler/internal/config"
	"github.com/phambaophuc/image-upscaler/internal/http/handlers"
	"github.com/phambaophuc/image-upscaler/internal/http/routes"
	"github.com/phambaophuc/image-upscaler/internal/metrics"
	"github.com/phambaophuc/image-upscaler/internal/services/processor"
	"github.com/phambaophuc/image-upscaler/internal/services/ratelimit"
	"github.com/phambaophuc/image-upscaler/internal/services/upscaler"
	"github.com/phambaophuc/image-upscaler/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.InitializeMetrics(registry, prometheus.Labels{"service": "image-upscaler"})

	// Initialize tracing
	tracerProvider, err := tracing.Setup(cfg, os.Stdout)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.Error("Failed to flush traces", zap.Error(err))
		}
	}()
	if cfg.TracingEnabled() {
		logger.Info("Tracing enabled",
			zap.String("exporter", cfg.Tracing.Exporter),
			zap.Float64("sample_ratio", cfg.Tracing.SampleRatio),
		)
	}

	// Initialize services
	imageProcessor := processor.NewImageProcessor(processor.Options{
		JPEGQuality: cfg.Upload.JPEGQuality,
		WebPQuality: cfg.Upload.WebPQuality,
	})

	upscaleService := upscaler.NewService(imageProcessor, m, upscaler.Options{
		MaxFileSize:    cfg.Upload.MaxFileSize,
		MaxDimension:   cfg.Upload.MaxDimension,
		MaxPixels:      cfg.Upload.MaxPixels,
		ProcessTimeout: cfg.Upload.ProcessTimeout,
		TracerProvider: tracerProvider,
	})

	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled() {
		limiter = ratelimit.NewLimiter(cfg)
		defer limiter.Close()
		logger.Info("Rate limiting enabled",
			zap.String("redis_addr", cfg.Redis.Addr),
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Duration("window", cfg.RateLimit.Window),
		)
	}

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(upscaleService, limiter, logger)

	router := routes.NewRouter(imageHandler, cfg, logger, m, registry, limiter)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Env),
			zap.Int64("max_file_size", cfg.Upload.MaxFileSize),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
