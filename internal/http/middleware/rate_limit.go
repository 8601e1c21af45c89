package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-upscaler/internal/metrics"
	"github.com/phambaophuc/image-upscaler/internal/models"
	"github.com/phambaophuc/image-upscaler/internal/services/ratelimit"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Result, error)
}

// RateLimit rejects clients over their window with 429. When the backend
// fails the request is let through.
func RateLimit(limiter Limiter, logger *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, err := limiter.Allow(ctx.Request.Context(), ctx.ClientIP())
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request",
				zap.String("request_id", GetRequestID(ctx)),
				zap.Error(err))
			ctx.Next()
			return
		}

		ctx.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		ctx.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			if m != nil {
				m.RateLimited.Inc()
			}

			ctx.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, models.APIResponse{
				Success: false,
				Error:   "Too many requests, please try again later.",
				Code:    "rate_limited",
			})
			return
		}

		ctx.Next()
	}
}
