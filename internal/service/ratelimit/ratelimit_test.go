package ratelimit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/quartz"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinerozz/tracking-backend/internal/service/memstore"
	"github.com/dinerozz/tracking-backend/internal/service/ratelimit"
	"github.com/dinerozz/tracking-backend/internal/service/redis"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type failingBackend struct{ calls int }

func (f *failingBackend) CheckRateLimit(context.Context, string, int, time.Duration) (bool, error) {
	f.calls++
	return false, errors.New("connection refused")
}

func backends(t *testing.T) map[string]ratelimit.Backend {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]ratelimit.Backend{
		"memory": memstore.New(quartz.NewMock(t)),
		"redis":  redis.NewFromClient(client),
	}
}

func TestAllowLimitPlusOne(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			limiter := ratelimit.NewLimiter(backend, discard, nil)
			ctx := context.Background()

			const limit = 10
			for i := 1; i <= limit; i++ {
				require.True(t, limiter.Allow(ctx, "view:10.0.0.1", limit, time.Minute), "call %d", i)
			}
			assert.False(t, limiter.Allow(ctx, "view:10.0.0.1", limit, time.Minute))

			// a fresh key has its own budget
			assert.True(t, limiter.Allow(ctx, "view:10.0.0.2", limit, time.Minute))
		})
	}
}

func TestAllowFailsOpen(t *testing.T) {
	t.Parallel()

	backend := &failingBackend{}
	limiter := ratelimit.NewLimiter(backend, discard, nil)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(context.Background(), "event:1.1.1.1", 1, time.Minute))
	}
	assert.Equal(t, 3, backend.calls)
}

func TestAllowZeroLimitDisables(t *testing.T) {
	t.Parallel()

	backend := &failingBackend{}
	limiter := ratelimit.NewLimiter(backend, discard, nil)

	assert.True(t, limiter.Allow(context.Background(), "k", 0, time.Minute))
	assert.Zero(t, backend.calls)
}
