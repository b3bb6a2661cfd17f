package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultLoginLimit  = 10
	defaultLoginWindow = 15 * time.Minute
	rateLimitTimeout   = 500 * time.Millisecond
)

// RateLimitStore is a fixed-window counter shared by every API instance.
// It satisfies echo's middleware.RateLimiterStore.
// Key format: ratelimit:<scope>:<identifier>
type RateLimitStore struct {
	client redis.Cmdable
	scope  string
	limit  int64
	window time.Duration
	log    zerolog.Logger
}

// NewRateLimitStore allows limit hits per identifier in each window.
func NewRateLimitStore(client redis.Cmdable, scope string, limit int, window time.Duration, log zerolog.Logger) *RateLimitStore {
	if limit <= 0 {
		limit = defaultLoginLimit
	}
	if window <= 0 {
		window = defaultLoginWindow
	}
	return &RateLimitStore{client: client, scope: scope, limit: int64(limit), window: window, log: log}
}

// Allow counts one hit for identifier. Redis failures let the request
// through so an outage does not lock everyone out of login.
func (s *RateLimitStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rateLimitTimeout)
	defer cancel()

	key := s.key(identifier)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, s.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("scope", s.scope).Msg("rate limit store unavailable, allowing request")
		return true, nil
	}
	return incr.Val() <= s.limit, nil
}

func (s *RateLimitStore) key(identifier string) string {
	return fmt.Sprintf("ratelimit:%s:%s", s.scope, identifier)
}
