package upscaler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/phambaophuc/image-upscaler/internal/metrics"
	"github.com/phambaophuc/image-upscaler/internal/models"
	"github.com/phambaophuc/image-upscaler/internal/services/processor"
	"github.com/phambaophuc/image-upscaler/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/phambaophuc/image-upscaler/internal/services/upscaler"

// Processor is the raster pipeline the service drives. processor.ImageProcessor
// is the production implementation.
type Processor interface {
	DecodeConfig(data []byte, format processor.Format) (image.Config, error)
	Decode(data []byte, format processor.Format) (image.Image, error)
	Upscale(img image.Image) image.Image
	Encode(w io.Writer, img image.Image, format processor.Format) error
}

type Options struct {
	MaxFileSize    int64
	MaxDimension   int
	MaxPixels      int64
	ProcessTimeout time.Duration
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

var DefaultOptions = Options{
	MaxFileSize:    10 << 20, // 10MB
	MaxDimension:   16384,
	MaxPixels:      64 << 20,
	ProcessTimeout: 30 * time.Second,
}

// Service validates one uploaded image and returns it at twice the
// resolution, encoded in the format sniffed from its content. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	processor Processor
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	options   Options
}

func NewService(processor Processor, m *metrics.Metrics, opts ...Options) *Service {
	options := DefaultOptions
	if len(opts) > 0 {
		options = opts[0]
	}

	tp := options.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Service{
		processor: processor,
		metrics:   m,
		tracer:    tp.Tracer(tracerName),
		options:   options,
	}
}

func (s *Service) MaxFileSize() int64 {
	return s.options.MaxFileSize
}

// Upscale runs the full pipeline. Checks are applied in a fixed order and the
// first failing one wins.
func (s *Service) Upscale(ctx context.Context, files []*models.UploadedFile) (*models.EncodedResult, error) {
	if len(files) != 1 || files[0] == nil {
		return nil, newError(KindTooManyFiles, msgTooManyFiles,
			fmt.Errorf("expected exactly one file part, got %d", len(files)))
	}
	file := files[0]

	if file.Size > s.options.MaxFileSize {
		return nil, payloadTooLarge(file.Size, s.options.MaxFileSize)
	}
	if size := int64(len(file.Data)); size > s.options.MaxFileSize {
		return nil, payloadTooLarge(size, s.options.MaxFileSize)
	}

	if !utils.IsImageContentType(file.ContentType) {
		return nil, newError(KindUnsupportedContentType, msgUnsupportedContentType,
			fmt.Errorf("declared content type %q is not an image", file.ContentType))
	}

	format := processor.DetectFormat(file.Data)
	if !format.Supported() {
		return nil, newError(KindUnsupportedFormat, msgUnsupportedFormat,
			errors.New("content does not match a supported image signature"))
	}

	s.metrics.ObserveSize("input", len(file.Data))

	result, err := s.process(ctx, file, format)
	if err != nil {
		s.metrics.ObserveUpscale(format.String(), KindOf(err).String())
		return nil, err
	}

	s.metrics.ObserveUpscale(format.String(), "ok")
	s.metrics.ObserveSize("output", len(result.Data))

	return result, nil
}

type outcome struct {
	result *models.EncodedResult
	err    error
}

// process runs the CPU-bound steps under the processing deadline. The
// raster work itself cannot be interrupted; on timeout its result is
// discarded and it stops at the next step boundary.
func (s *Service) process(ctx context.Context, file *models.UploadedFile, format processor.Format) (*models.EncodedResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.options.ProcessTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: newError(KindProcessingFailure, msgProcessingFailure,
					fmt.Errorf("panic during processing: %v", r))}
			}
		}()

		result, err := s.transform(ctx, file, format)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	}
}

func contextError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindProcessingTimeout, msgProcessingTimeout, err)
	}
	return newError(KindProcessingFailure, msgProcessingFailure, err)
}

func (s *Service) transform(ctx context.Context, file *models.UploadedFile, format processor.Format) (*models.EncodedResult, error) {
	ctx, span := s.tracer.Start(ctx, "upscaler.transform",
		trace.WithAttributes(
			attribute.String("image.format", format.String()),
			attribute.Int("image.input_bytes", len(file.Data)),
		))
	defer span.End()

	cfg, err := s.processor.DecodeConfig(file.Data, format)
	if err != nil {
		return nil, failed(span, "failed to read image header", err)
	}
	if err := processor.ValidateBounds(cfg.Width, cfg.Height, s.options.MaxDimension, s.options.MaxPixels); err != nil {
		return nil, failed(span, "image bounds rejected", err)
	}

	img, err := step(ctx, s, "decode", func() (image.Image, error) {
		return s.processor.Decode(file.Data, format)
	})
	if err != nil {
		return nil, failed(span, "failed to decode image", err)
	}
	if ctx.Err() != nil {
		return nil, contextError(ctx.Err())
	}

	upscaled := s.resample(ctx, img)
	if ctx.Err() != nil {
		return nil, contextError(ctx.Err())
	}

	var buf bytes.Buffer
	if _, err := step(ctx, s, "encode", func() (struct{}, error) {
		return struct{}{}, s.processor.Encode(&buf, upscaled, format)
	}); err != nil {
		return nil, failed(span, "failed to encode image", err)
	}

	bounds := upscaled.Bounds()
	span.SetAttributes(
		attribute.Int("image.width", bounds.Dx()),
		attribute.Int("image.height", bounds.Dy()),
	)

	return &models.EncodedResult{
		Data:        buf.Bytes(),
		ContentType: file.ContentType,
		Filename:    utils.UpscaledFilename(file.Filename, format.String()),
		Format:      format.String(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

// step times fn and records it as a child span.
func step[T any](ctx context.Context, s *Service, operation string, fn func() (T, error)) (T, error) {
	_, span := s.tracer.Start(ctx, "upscaler."+operation)
	defer span.End()

	result, err := metrics.TimeFunction(fn, operation, s.metrics)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
	}
	return result, err
}

// resample cannot fail, so it is timed and traced without step.
func (s *Service) resample(ctx context.Context, img image.Image) image.Image {
	_, span := s.tracer.Start(ctx, "upscaler.resample")
	defer span.End()
	defer s.metrics.ObserveProcessTime("resample", time.Now())

	return s.processor.Upscale(img)
}

func failed(span trace.Span, stage string, err error) *Error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	return newError(KindProcessingFailure, msgProcessingFailure, fmt.Errorf("%s: %w", stage, err))
}
