package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-upscaler/internal/http/middleware"
	"github.com/phambaophuc/image-upscaler/internal/models"
	"github.com/phambaophuc/image-upscaler/internal/services/upscaler"
	"github.com/phambaophuc/image-upscaler/pkg/utils"
	"go.uber.org/zap"
)

// === REQUEST PARSING ===

func (h *ImageHandler) parseUploadedFiles(c *gin.Context) ([]*models.UploadedFile, error) {
	maxSize := h.upscaler.MaxFileSize()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)
	if err := c.Request.ParseMultipartForm(maxSize + multipartOverhead); err != nil {
		if isBodyTooLarge(err) {
			return nil, upscaler.NewPayloadTooLarge(maxSize, err)
		}
		return nil, upscaler.NewTooManyFiles(fmt.Errorf("failed to parse form data: %w", err))
	}

	form := c.Request.MultipartForm
	if total := countFileParts(form); total != 1 || len(form.File[fileParamKey]) != 1 {
		return nil, upscaler.NewTooManyFiles(
			fmt.Errorf("expected one file part named %q, got %d file parts", fileParamKey, total))
	}

	file, err := h.readFile(form.File[fileParamKey][0], maxSize)
	if err != nil {
		return nil, err
	}

	return []*models.UploadedFile{file}, nil
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large")
}

func countFileParts(form *multipart.Form) int {
	total := 0
	for _, headers := range form.File {
		total += len(headers)
	}
	return total
}

// === FILE OPERATIONS ===

// readFile reads at most maxSize+1 bytes so the service can tell an
// oversized upload from the bytes themselves.
func (h *ImageHandler) readFile(header *multipart.FileHeader, maxSize int64) (*models.UploadedFile, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	return &models.UploadedFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        data,
	}, nil
}

// === RESPONSE HANDLING ===

// respondWithImage echoes the client-declared content type. It is not
// verified against the sniffed format and must not be trusted downstream.
func (h *ImageHandler) respondWithImage(c *gin.Context, result *models.EncodedResult) {
	c.Header("Content-Disposition", utils.ContentDisposition(result.Filename))
	c.Header("X-Image-Width", strconv.Itoa(result.Width))
	c.Header("X-Image-Height", strconv.Itoa(result.Height))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

func (h *ImageHandler) respondUpscaleError(c *gin.Context, err error) {
	kind := upscaler.KindOf(err)

	fields := []zap.Field{
		zap.String("request_id", requestID(c)),
		zap.String("kind", kind.String()),
		zap.Error(err),
	}
	if kind.ClientError() {
		h.logger.Warn("Upscale request rejected", fields...)
	} else {
		h.logger.Error("Upscale failed", fields...)
	}

	c.JSON(statusFor(kind), models.APIResponse{
		Success: false,
		Error:   upscaler.PublicMessage(err),
		Code:    kind.String(),
	})
}

func statusFor(kind upscaler.Kind) int {
	switch kind {
	case upscaler.KindTooManyFiles,
		upscaler.KindPayloadTooLarge,
		upscaler.KindUnsupportedContentType,
		upscaler.KindUnsupportedFormat:
		return http.StatusBadRequest
	case upscaler.KindProcessingTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// === UTILITY METHODS ===

func requestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}
