package middleware

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-upscaler/internal/models"
	"github.com/phambaophuc/image-upscaler/internal/services/upscaler"
)

// ValidateContentType rejects upload requests that are not multipart forms,
// since they cannot carry the single file part the endpoint expects.
func ValidateContentType() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		contentType := ctx.GetHeader("Content-Type")

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "multipart/form-data" {
			uerr := upscaler.NewTooManyFiles(fmt.Errorf("request content type %q is not multipart/form-data", contentType))
			ctx.AbortWithStatusJSON(http.StatusBadRequest, models.APIResponse{
				Success: false,
				Error:   uerr.Message,
				Code:    uerr.Kind.String(),
			})
			return
		}

		ctx.Next()
	}
}
