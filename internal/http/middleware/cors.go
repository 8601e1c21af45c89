package middleware

import (
	"net/http"
	"strings"

	"github.com/IGLOU-EU/go-wildcard/v2"
	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods   = "GET, POST, OPTIONS"
	corsExposeHeaders  = "Content-Disposition, X-Request-ID, X-Image-Width, X-Image-Height"
	corsMaxAge         = "600"
	corsDefaultHeaders = "Content-Type, X-Request-ID"
)

// CORS allows cross-origin calls from the configured origins. Entries may be
// exact origins, "*", or wildcard patterns such as "https://*.example.com".
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		if origin == "" {
			ctx.Next()
			return
		}

		allowed := originAllowed(origin, allowedOrigins)
		preflight := ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != ""

		ctx.Writer.Header().Add("Vary", "Origin")

		if !allowed {
			if preflight {
				ctx.AbortWithStatus(http.StatusForbidden)
				return
			}
			ctx.Next()
			return
		}

		ctx.Header("Access-Control-Allow-Origin", origin)
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Expose-Headers", corsExposeHeaders)

		if preflight {
			requestHeaders := ctx.GetHeader("Access-Control-Request-Headers")
			if requestHeaders == "" {
				requestHeaders = corsDefaultHeaders
			}
			ctx.Header("Access-Control-Allow-Methods", corsAllowMethods)
			ctx.Header("Access-Control-Allow-Headers", requestHeaders)
			ctx.Header("Access-Control-Max-Age", corsMaxAge)
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}

func originAllowed(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		if strings.Contains(allowed, "*") && wildcard.Match(allowed, origin) {
			return true
		}
	}
	return false
}
