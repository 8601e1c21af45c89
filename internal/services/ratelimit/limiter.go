package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/image-upscaler/internal/config"
	"github.com/redis/go-redis/v9"
)

const KeyPrefix = "upscale_rl:"

// Result describes the state of a client's window after one request.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a fixed-window request counter kept in Redis so that several
// server instances share the same budget per client.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewLimiter(cfg *config.Config) *Limiter {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	return New(client, cfg.RateLimit.Requests, cfg.RateLimit.Window)
}

func New(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow counts one request for key and reports whether it fits the window.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := KeyPrefix + key

	pipeline := l.client.Pipeline()
	incrCmd := pipeline.Incr(ctx, redisKey)
	ttlCmd := pipeline.TTL(ctx, redisKey)

	if _, err := pipeline.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit pipeline error: %w", err)
	}

	retryAfter := ttlCmd.Val()
	if retryAfter < 0 {
		// First hit of the window, or a key left without expiry.
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire error: %w", err)
		}
		retryAfter = l.window
	}

	count := int(incrCmd.Val())

	return Result{
		Allowed:    count <= l.limit,
		Limit:      l.limit,
		Remaining:  max(0, l.limit-count),
		RetryAfter: retryAfter,
	}, nil
}

// HealthCheck checks Redis
func (l *Limiter) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := l.client.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy"
	} else {
		status["redis"] = "healthy"
	}

	return status
}

func (l *Limiter) Close() error {
	return l.client.Close()
}
