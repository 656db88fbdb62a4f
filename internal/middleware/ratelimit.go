package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/orally-backend/pkg/clientip"
)

const (
	RateLimitWindow      = 120 * time.Second
	RateLimitMaxRequests = 120
	RateLimitKeyPrefix   = "ratelimit:"
)

// RedisLimiter is a fixed-window counter shared by every server instance
// pointed at the same Redis. Redis failures let the request through.
type RedisLimiter struct {
	rdb    *redis.Client
	window time.Duration
	max    int
	ips    *clientip.Resolver
	logger *slog.Logger
}

func NewRedisLimiter(rdb *redis.Client, window time.Duration, max int, ips *clientip.Resolver, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{rdb: rdb, window: window, max: max, ips: ips, logger: logger}
}

// Hit counts one request for key and returns the count within the current
// window. The key is seeded with its expiry in the same transaction as the
// increment, so a window can never outlive its TTL.
func (l *RedisLimiter) Hit(ctx context.Context, key string) (int64, error) {
	k := RateLimitKeyPrefix + key
	pipe := l.rdb.TxPipeline()
	pipe.SetNX(ctx, k, 0, l.window)
	incr := pipe.Incr(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (l *RedisLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.ips.ClientIP(r)
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		count, err := l.Hit(ctx, ip)
		cancel()
		if err != nil {
			l.logger.Warn("rate limit check failed", "ip", ip, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(l.max) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(fmt.Sprintf(`{"success":false,"message":"Rate limit exceeded. Please try again later.","retry_after":%d}`, int(l.window.Seconds()))))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(l.max)-count, 10))
		next.ServeHTTP(w, r)
	})
}
