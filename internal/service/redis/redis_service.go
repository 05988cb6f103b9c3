package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dinerozz/tracking-backend/config"
	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter and starts the window on the first
// hit. INCR and PEXPIRE run as one script so a counter never lives without a TTL.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

type Service struct {
	client *redis.Client
}

var _ ServiceInterface = (*Service)(nil)

func NewRedisService(cfg config.RedisConfig, logger *slog.Logger) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to redis", slog.String("addr", fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)))
	return &Service{client: client}, nil
}

// NewFromClient wraps an existing client, used by tests against miniredis.
func NewFromClient(client *redis.Client) *Service {
	return &Service{client: client}
}

func (r *Service) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := fixedWindowScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return count <= int64(limit), nil
}

func (r *Service) GetString(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get value: %w", err)
	}

	return val, true, nil
}

func (r *Service) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set value: %w", err)
	}
	return ok, nil
}

func (r *Service) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}
	return nil
}

func (r *Service) IncrementScore(ctx context.Context, key, member string, by float64, ttl time.Duration) error {
	pipe := r.client.TxPipeline()
	pipe.ZIncrBy(ctx, key, by, member)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment score: %w", err)
	}
	return nil
}

func (r *Service) TopScores(ctx context.Context, key string, count int64) ([]ScoredMember, error) {
	entries, err := r.client.ZRevRangeWithScores(ctx, key, 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read sorted set: %w", err)
	}

	out := make([]ScoredMember, 0, len(entries))
	for _, z := range entries {
		member, ok := z.Member.(string)
		if !ok {
			member = fmt.Sprint(z.Member)
		}
		out = append(out, ScoredMember{Member: member, Score: z.Score})
	}
	return out, nil
}

func (r *Service) Close() error {
	return r.client.Close()
}

func (r *Service) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
