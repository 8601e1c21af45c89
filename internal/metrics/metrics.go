package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	UpscaleRequests     *prometheus.CounterVec
	ImageProcessTime    *prometheus.HistogramVec
	ImageSizeBytes      *prometheus.HistogramVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimited         prometheus.Counter
}

func InitializeMetrics(registry prometheus.Registerer, constLabels prometheus.Labels) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		UpscaleRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "upscale_requests_total",
			Help:        "Number of upscale requests by detected format and result",
			ConstLabels: constLabels,
		}, []string{"format", "result"}),

		ImageProcessTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "image_process_time_seconds",
			Help:        "Image processing time in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"operation"}),

		ImageSizeBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "image_size_bytes",
			Help:        "Image size in bytes",
			ConstLabels: constLabels,
			Buckets:     []float64{1024, 10240, 102400, 1048576, 10485760, 41943040}, // 1KB to 40MB
		}, []string{"direction"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name:        "rate_limited_total",
			Help:        "Number of requests rejected by the rate limiter",
			ConstLabels: constLabels,
		}),
	}
}

// TimeFunction measures the execution time of fn under the given operation label.
func TimeFunction[T any](fn func() (T, error), operation string, m *Metrics) (T, error) {
	start := time.Now()
	result, err := fn()
	m.ObserveProcessTime(operation, start)

	return result, err
}

// ObserveProcessTime records the time elapsed since start for operation.
func (m *Metrics) ObserveProcessTime(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.ImageProcessTime.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveUpscale(format, result string) {
	if m == nil {
		return
	}
	m.UpscaleRequests.WithLabelValues(format, result).Inc()
}

func (m *Metrics) ObserveSize(direction string, size int) {
	if m == nil {
		return
	}
	m.ImageSizeBytes.WithLabelValues(direction).Observe(float64(size))
}
