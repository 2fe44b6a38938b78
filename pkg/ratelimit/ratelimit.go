// Package ratelimit provides per-API-key request limiting with in-memory and
// Redis backends.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultRequestsPerMinute is the per-key ceiling applied when no explicit
// limit is configured.
const DefaultRequestsPerMinute = 60

// Limiter answers whether a keyed request may proceed. Implementations are
// safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// New selects a limiter backend from the URL scheme. An empty URL or
// "memory://" yields the in-process limiter; "redis://" shares the window
// across instances.
func New(rateLimitURL string, requestsPerMinute int, logger *slog.Logger) (Limiter, error) {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}

	switch {
	case rateLimitURL == "" || strings.HasPrefix(rateLimitURL, "memory://"):
		return NewMemoryLimiter(requestsPerMinute), nil
	case strings.HasPrefix(rateLimitURL, "redis://"), strings.HasPrefix(rateLimitURL, "rediss://"):
		return NewRedisLimiter(rateLimitURL, requestsPerMinute, logger)
	default:
		return nil, fmt.Errorf("unsupported rate limit backend: %s", rateLimitURL)
	}
}
