package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zenjournal/zenjournal-backend/pkg/clientip"
)

const (
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
)

// RedisRateLimiter is a fixed-window counter per IP shared by every instance.
// An IP that exceeds the window is blocked for BlockFor.
type RedisRateLimiter struct {
	client   redis.Cmdable
	Limit    int
	Window   time.Duration
	BlockFor time.Duration
}

func NewRedisRateLimiter(client redis.Cmdable, limit int, window, blockFor time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, Limit: limit, Window: window, BlockFor: blockFor}
}

// Middleware fails open when Redis is unavailable.
func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := clientip.RealClientIP(r)

		blockedKey := BlockedIPKeyPrefix + ip
		blocked, err := l.client.Exists(ctx, blockedKey).Result()
		if err == nil && blocked > 0 {
			writeTooMany(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		key := RateLimitKeyPrefix + ip
		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			l.client.Expire(ctx, key, l.Window)
		}

		if count > int64(l.Limit) {
			if l.BlockFor > 0 {
				l.client.Set(ctx, blockedKey, "1", l.BlockFor)
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.Window.Seconds())))
			writeTooMany(w, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(l.Limit)-count, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(l.Window).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}
