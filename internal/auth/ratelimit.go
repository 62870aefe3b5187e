package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles login attempts per email+client with a fixed
// window counter in redis. The window key expires on its own; no cleanup is
// needed.
type LoginLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
}

// NewLoginLimiter creates a limiter allowing limit attempts per window
func NewLoginLimiter(client redis.UniversalClient, limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "login-attempts",
	}
}

// Allow records an attempt and reports whether it is within the limit
func (l *LoginLimiter) Allow(ctx context.Context, email, clientKey string) (bool, error) {
	key := fmt.Sprintf("%s:%s:%s", l.prefix, email, clientKey)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// First attempt opens the window
		if err := l.client.PExpire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.limit), nil
}
