package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env       string `env:"ENV" envDefault:"development"`
	Server    ServerConfig
	Upload    UploadConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	Tracing   TracingConfig
}

type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"PORT" envDefault:"8000"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	PublicDir       string        `env:"PUBLIC_DIR"`
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For header is
	// believed. Empty means the client IP is always the socket peer.
	TrustedProxies  []string      `env:"TRUSTED_PROXIES" envSeparator:","`
}

type UploadConfig struct {
	MaxFileSize    int64         `env:"MAX_FILE_SIZE" envDefault:"10485760"` // 10MB
	MaxDimension   int           `env:"MAX_DIMENSION" envDefault:"16384"`
	MaxPixels      int64         `env:"MAX_PIXELS" envDefault:"67108864"`
	ProcessTimeout time.Duration `env:"PROCESS_TIMEOUT" envDefault:"30s"`
	JPEGQuality    int           `env:"JPEG_QUALITY" envDefault:"75"`
	WebPQuality    int           `env:"WEBP_QUALITY" envDefault:"80"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"30"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

type TracingConfig struct {
	// Exporter is "none" or "stdout".
	Exporter    string  `env:"TRACING_EXPORTER" envDefault:"none"`
	ServiceName string  `env:"TRACING_SERVICE_NAME" envDefault:"image-upscaler"`
	SampleRatio float64 `env:"TRACING_SAMPLE_RATIO" envDefault:"1"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the upscaler cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Upload.MaxFileSize))
	}
	if c.Upload.MaxDimension <= 0 {
		errs = append(errs, fmt.Errorf("MAX_DIMENSION must be positive, got %d", c.Upload.MaxDimension))
	}
	if c.Upload.MaxPixels <= 0 {
		errs = append(errs, fmt.Errorf("MAX_PIXELS must be positive, got %d", c.Upload.MaxPixels))
	}
	if c.Upload.ProcessTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PROCESS_TIMEOUT must be positive, got %s", c.Upload.ProcessTimeout))
	}
	if c.Upload.JPEGQuality < 1 || c.Upload.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("JPEG_QUALITY must be between 1 and 100, got %d", c.Upload.JPEGQuality))
	}
	if c.Upload.WebPQuality < 1 || c.Upload.WebPQuality > 100 {
		errs = append(errs, fmt.Errorf("WEBP_QUALITY must be between 1 and 100, got %d", c.Upload.WebPQuality))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	for _, proxy := range c.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				errs = append(errs, fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy))
			}
		}
	}
	switch c.Tracing.Exporter {
	case "none", "stdout":
	default:
		errs = append(errs, fmt.Errorf("TRACING_EXPORTER must be none or stdout, got %q", c.Tracing.Exporter))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("TRACING_SAMPLE_RATIO must be between 0 and 1, got %g", c.Tracing.SampleRatio))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// TracingEnabled reports whether spans are exported.
func (c *Config) TracingEnabled() bool {
	return c.Tracing.Exporter != "none"
}

// RateLimitEnabled reports whether a Redis backend is configured.
func (c *Config) RateLimitEnabled() bool {
	return c.Redis.Addr != ""
}
