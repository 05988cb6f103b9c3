package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/dinerozz/tracking-backend/internal/metrics"
)

// Backend performs the atomic increment-and-check. The Redis service and
// memstore both satisfy it.
type Backend interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Limiter interface {
	// Allow reports whether another call for key fits within limit calls per
	// window. It never fails: backend errors allow the call.
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

type limiter struct {
	backend Backend
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewLimiter(backend Backend, logger *slog.Logger, m *metrics.Metrics) Limiter {
	return &limiter{backend: backend, logger: logger, metrics: m}
}

func (l *limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return true
	}

	allowed, err := l.backend.CheckRateLimit(ctx, "rl:"+key, limit, window)
	if err != nil {
		l.logger.Warn("rate limiter backend failed, allowing request",
			slog.String("key", key), slog.Any("error", err))
		l.metrics.RecordLimiterError()
		return true
	}
	return allowed
}
