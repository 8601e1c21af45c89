package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/image-upscaler/internal/metrics"
	"github.com/phambaophuc/image-upscaler/internal/services/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(handlers...)
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.POST("/upload", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return router
}

func TestCORS_AllowedOrigins(t *testing.T) {
	router := newEngine(CORS([]string{"https://app.example.com", "https://*.example.org"}))

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://app.example.com", true},
		{"https://cdn.example.org", true},
		{"https://evil.example.net", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", tt.origin)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		got := w.Header().Get("Access-Control-Allow-Origin")
		if tt.allowed && got != tt.origin {
			t.Errorf("%s: expected allow origin header, got %q", tt.origin, got)
		}
		if !tt.allowed && got != "" {
			t.Errorf("%s: expected no allow origin header, got %q", tt.origin, got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", tt.origin, w.Code)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	router := newEngine(CORS([]string{"*"}))

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "https://anywhere.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Methods") != corsAllowMethods {
		t.Fatalf("unexpected allow methods %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestCORS_PreflightRejected(t *testing.T) {
	router := newEngine(CORS([]string{"https://app.example.com"}))

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "https://other.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	router := newEngine(RequestID())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if _, err := uuid.Parse(w.Header().Get(RequestIDHeader)); err != nil {
		t.Fatalf("expected generated uuid, got %q", w.Header().Get(RequestIDHeader))
	}

	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, existing)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) != existing {
		t.Fatalf("expected request id to be reused")
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "bad\nvalue")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) == "bad\nvalue" {
		t.Fatalf("invalid request id must be replaced")
	}
}

func TestErrorHandler_RecoversPanics(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), ErrorHandler(zap.NewNop()))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestValidateContentType(t *testing.T) {
	router := newEngine(ValidateContentType())

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for json body, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for multipart body, got %d", w.Code)
	}
}

type fakeLimiter struct {
	result ratelimit.Result
	err    error
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (ratelimit.Result, error) {
	return f.result, f.err
}

func TestRateLimit(t *testing.T) {
	m := metrics.InitializeMetrics(prometheus.NewRegistry(), nil)

	tests := []struct {
		name    string
		limiter *fakeLimiter
		status  int
	}{
		{"allowed", &fakeLimiter{result: ratelimit.Result{Allowed: true, Limit: 5, Remaining: 4}}, http.StatusOK},
		{"limited", &fakeLimiter{result: ratelimit.Result{Allowed: false, Limit: 5, RetryAfter: 1500 * time.Millisecond}}, http.StatusTooManyRequests},
		{"backend down", &fakeLimiter{err: errors.New("connection refused")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newEngine(RateLimit(tt.limiter, zap.NewNop(), m))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if tt.status == http.StatusTooManyRequests && w.Header().Get("Retry-After") != "2" {
				t.Fatalf("expected Retry-After 2, got %q", w.Header().Get("Retry-After"))
			}
		})
	}

	if v := testutil.ToFloat64(m.RateLimited); v != 1 {
		t.Fatalf("expected 1 rate limited request, got %v", v)
	}
}

func TestMetrics_RecordsRoute(t *testing.T) {
	m := metrics.InitializeMetrics(prometheus.NewRegistry(), nil)
	router := newEngine(Metrics(m))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if n := testutil.CollectAndCount(m.HTTPRequestDuration); n != 1 {
		t.Fatalf("expected 1 series, got %d", n)
	}
}
