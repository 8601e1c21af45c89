package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-upscaler/internal/config"
	"github.com/phambaophuc/image-upscaler/internal/http/handlers"
	"github.com/phambaophuc/image-upscaler/internal/http/middleware"
	"github.com/phambaophuc/image-upscaler/internal/metrics"
	"github.com/phambaophuc/image-upscaler/internal/models"
	"github.com/phambaophuc/image-upscaler/internal/services/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Router struct {
	imageHandler *handlers.ImageHandler
	config       *config.Config
	logger       *zap.Logger
	metrics      *metrics.Metrics
	gatherer     prometheus.Gatherer
	limiter      *ratelimit.Limiter
}

func NewRouter(
	imageHandler *handlers.ImageHandler,
	config *config.Config,
	logger *zap.Logger,
	metrics *metrics.Metrics,
	gatherer prometheus.Gatherer,
	limiter *ratelimit.Limiter,
) *Router {
	return &Router{
		imageHandler: imageHandler,
		config:       config,
		logger:       logger,
		metrics:      metrics,
		gatherer:     gatherer,
		limiter:      limiter,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()
	r.setupTrustedProxies(router)

	// Recovery sits inside the access logger so recovered panics are logged
	// with their 500 status.
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	if r.metrics != nil {
		router.Use(middleware.Metrics(r.metrics))
	}
	router.Use(middleware.CORS(r.config.Server.CORSOrigins))
	router.Use(middleware.SecurityHeaders())

	router.GET("/health", r.imageHandler.HealthCheck)

	if r.config.Metrics.Enabled && r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		upscale := []gin.HandlerFunc{}
		if r.limiter != nil {
			upscale = append(upscale, middleware.RateLimit(r.limiter, r.logger, r.metrics))
		}
		upscale = append(upscale, middleware.ValidateContentType(), r.imageHandler.UpscaleImage)

		api.POST("/upscale", upscale...)
	}

	r.setupStatic(router)

	return router
}

// setupTrustedProxies limits which peers may set X-Forwarded-For. ClientIP
// keys the rate limiter, so by default no proxy is trusted.
func (r *Router) setupTrustedProxies(router *gin.Engine) {
	var proxies []string
	if len(r.config.Server.TrustedProxies) > 0 {
		proxies = r.config.Server.TrustedProxies
	}

	if err := router.SetTrustedProxies(proxies); err != nil {
		r.logger.Error("Invalid trusted proxies, trusting none", zap.Error(err))
		if err := router.SetTrustedProxies(nil); err != nil {
			r.logger.Error("Failed to reset trusted proxies", zap.Error(err))
		}
	}
}

// setupStatic serves the bundled front-end from PublicDir when configured.
func (r *Router) setupStatic(router *gin.Engine) {
	if r.config.Server.PublicDir == "" {
		router.GET("/", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"message": "Image upscaler is running",
			})
		})
		return
	}

	fileServer := http.FileServer(http.Dir(r.config.Server.PublicDir))
	router.NoRoute(func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet && ctx.Request.Method != http.MethodHead {
			ctx.JSON(http.StatusNotFound, models.APIResponse{
				Success: false,
				Error:   "Not found",
				Code:    "not_found",
			})
			return
		}
		fileServer.ServeHTTP(ctx.Writer, ctx.Request)
	})
}
