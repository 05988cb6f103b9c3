package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinerozz/tracking-backend/internal/service/redis"
)

func newService(t *testing.T) (*redis.Service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewFromClient(client), mr
}

func TestCheckRateLimit(t *testing.T) {
	t.Parallel()

	svc, mr := newService(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := svc.CheckRateLimit(ctx, "rl:view:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "call %d should pass", i)
	}

	ok, err := svc.CheckRateLimit(ctx, "rl:view:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl := mr.TTL("rl:view:1.2.3.4")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	mr.FastForward(time.Minute + time.Second)

	ok, err = svc.CheckRateLimit(ctx, "rl:view:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckRateLimitKeepsFirstWindow(t *testing.T) {
	t.Parallel()

	svc, mr := newService(t)
	ctx := context.Background()

	_, err := svc.CheckRateLimit(ctx, "rl:event:k", 10, time.Minute)
	require.NoError(t, err)
	mr.FastForward(40 * time.Second)

	_, err = svc.CheckRateLimit(ctx, "rl:event:k", 10, time.Minute)
	require.NoError(t, err)

	assert.LessOrEqual(t, mr.TTL("rl:event:k"), 20*time.Second)
}

func TestSetIfAbsentAndGetString(t *testing.T) {
	t.Parallel()

	svc, mr := newService(t)
	ctx := context.Background()

	_, ok, err := svc.GetString(ctx, "visit:dedup:fp:/a")
	require.NoError(t, err)
	assert.False(t, ok)

	set, err := svc.SetIfAbsent(ctx, "visit:dedup:fp:/a", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, set)

	set, err = svc.SetIfAbsent(ctx, "visit:dedup:fp:/a", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, set)

	val, ok, err := svc.GetString(ctx, "visit:dedup:fp:/a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first", val)

	mr.FastForward(2 * time.Minute)
	_, ok, err = svc.GetString(ctx, "visit:dedup:fp:/a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	svc, mr := newService(t)
	ctx := context.Background()

	set, err := svc.SetIfAbsent(ctx, "visit:dedup:fp:/b", "first", time.Minute)
	require.NoError(t, err)
	require.True(t, set)

	require.NoError(t, svc.Delete(ctx, "visit:dedup:fp:/b"))
	assert.False(t, mr.Exists("visit:dedup:fp:/b"))
	require.NoError(t, svc.Delete(ctx, "visit:dedup:fp:/b"))

	set, err = svc.SetIfAbsent(ctx, "visit:dedup:fp:/b", "second", time.Minute)
	require.NoError(t, err)
	assert.True(t, set)
}

func TestIncrementScoreAndTopScores(t *testing.T) {
	t.Parallel()

	svc, mr := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.IncrementScore(ctx, "trending:2024-01-01", "post:1", 1, time.Hour))
	require.NoError(t, svc.IncrementScore(ctx, "trending:2024-01-01", "post:2", 1, time.Hour))
	require.NoError(t, svc.IncrementScore(ctx, "trending:2024-01-01", "post:2", 1, time.Hour))

	top, err := svc.TopScores(ctx, "trending:2024-01-01", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, redis.ScoredMember{Member: "post:2", Score: 2}, top[0])
	assert.Equal(t, redis.ScoredMember{Member: "post:1", Score: 1}, top[1])
	assert.Greater(t, mr.TTL("trending:2024-01-01"), time.Duration(0))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	require.NoError(t, svc.Health(context.Background()))
}
