package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in fixed one-minute windows shared across
// service instances.
type RedisLimiter struct {
	client *redis.Client
	logger *slog.Logger
	perMin int
}

func NewRedisLimiter(rateLimitURL string, requestsPerMinute int, logger *slog.Logger) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(rateLimitURL)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis for rate limiting", "addr", opts.Addr)

	return &RedisLimiter{client: client, logger: logger, perMin: requestsPerMinute}, nil
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := time.Now().UTC().Truncate(time.Minute).Unix()
	bucket := fmt.Sprintf("fluxion:ratelimit:%s:%d", key, window)

	pipe := r.client.TxPipeline()
	count := pipe.Incr(ctx, bucket)
	pipe.Expire(ctx, bucket, 2*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}

	return count.Val() <= int64(r.perMin), nil
}

func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
