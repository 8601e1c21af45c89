package tracing

import (
	"fmt"
	"io"

	"github.com/phambaophuc/image-upscaler/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewProvider builds the tracer provider described by cfg. The stdout
// exporter writes finished spans to w as JSON. With tracing disabled the
// provider samples nothing.
func NewProvider(cfg *config.Config, w io.Writer) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.Tracing.ServiceName),
			attribute.String("deployment.environment", cfg.Env),
		)),
	}

	switch cfg.Tracing.Exporter {
	case "none":
		opts = append(opts, sdktrace.WithSampler(sdktrace.NeverSample()))
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		opts = append(opts,
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))),
		)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Tracing.Exporter)
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

// Setup installs the provider as the global one. Callers must Shutdown it
// to flush pending spans.
func Setup(cfg *config.Config, w io.Writer) (*sdktrace.TracerProvider, error) {
	tp, err := NewProvider(cfg, w)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	return tp, nil
}
