package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-upscaler/internal/models"
	"github.com/phambaophuc/image-upscaler/internal/services/ratelimit"
	"github.com/phambaophuc/image-upscaler/internal/services/upscaler"
	"go.uber.org/zap"
)

const (
	fileParamKey = "file"
	// multipartOverhead is the room left above the file size limit for
	// boundaries, part headers and other form fields.
	multipartOverhead = 1 << 20
)

type ImageHandler struct {
	upscaler *upscaler.Service
	limiter  *ratelimit.Limiter
	logger   *zap.Logger
}

func NewImageHandler(
	upscaler *upscaler.Service,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) *ImageHandler {
	return &ImageHandler{
		upscaler: upscaler,
		limiter:  limiter,
		logger:   logger,
	}
}

// UpscaleImage accepts a multipart form with exactly one file under "file"
// and streams back the image at twice its resolution.
func (h *ImageHandler) UpscaleImage(c *gin.Context) {
	files, err := h.parseUploadedFiles(c)
	if c.Request.MultipartForm != nil {
		defer c.Request.MultipartForm.RemoveAll()
	}
	if err != nil {
		h.respondUpscaleError(c, err)
		return
	}

	result, err := h.upscaler.Upscale(c.Request.Context(), files)
	if err != nil {
		h.respondUpscaleError(c, err)
		return
	}

	h.logger.Info("Image upscaled",
		zap.String("request_id", requestID(c)),
		zap.String("filename", result.Filename),
		zap.String("format", result.Format),
		zap.Int("width", result.Width),
		zap.Int("height", result.Height),
		zap.Int("bytes", len(result.Data)),
	)

	h.respondWithImage(c, result)
}

// HealthCheck is a liveness probe. Dependency status is reported but never
// turns the probe red: the rate limiter fails open.
func (h *ImageHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{"redis": "not configured"}
	if h.limiter != nil {
		for name, status := range h.limiter.HealthCheck(c.Request.Context()) {
			services[name] = status
		}
	}

	c.JSON(http.StatusOK, models.HealthCheck{
		Status:    "ok",
		Timestamp: time.Now(),
		Services:  services,
	})
}
