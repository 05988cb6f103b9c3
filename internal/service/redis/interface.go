package redis

import (
	"context"
	"time"
)

// ScoredMember is one entry of a sorted set, highest score first.
type ScoredMember struct {
	Member string
	Score  float64
}

// ServiceInterface is the key/value surface the tracking services need. It is
// satisfied by the Redis-backed Service and by memstore.Store.
type ServiceInterface interface {
	// CheckRateLimit counts a hit against key and reports whether the count
	// for the current window is still within limit.
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// GetString returns ok=false when the key is missing or expired.
	GetString(ctx context.Context, key string) (value string, ok bool, err error)
	// SetIfAbsent stores value under key with ttl unless the key exists.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	IncrementScore(ctx context.Context, key, member string, by float64, ttl time.Duration) error
	TopScores(ctx context.Context, key string, count int64) ([]ScoredMember, error)

	Health(ctx context.Context) error
	Close() error
}
