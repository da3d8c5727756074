package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"loan-ledger/internal/config"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	rateLimitWindow = time.Second
	limiterIdleTTL  = 10 * time.Minute
)

// windowCounter is the subset of the Redis client used for fixed-window counting.
type windowCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

var _ windowCounter = (*redis.Client)(nil)

// RateLimiterMiddleware limits requests per client IP. With a Redis client the
// limit is shared across instances using a fixed one-second window; without one
// each instance keeps token buckets in memory.
type RateLimiterMiddleware struct {
	cfg      config.RateLimitConfig
	counter  windowCounter
	limiters sync.Map
	logger   *slog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiterMiddleware(cfg config.RateLimitConfig, redisClient *redis.Client, logger *slog.Logger) *RateLimiterMiddleware {
	var counter windowCounter
	if redisClient != nil {
		counter = redisClient
	}
	return newRateLimiterMiddleware(cfg, counter, logger)
}

func newRateLimiterMiddleware(cfg config.RateLimitConfig, counter windowCounter, logger *slog.Logger) *RateLimiterMiddleware {
	log := logger.With(slog.String("component", "RateLimiter"))
	rl := &RateLimiterMiddleware{
		cfg:     cfg,
		counter: counter,
		logger:  log,
		stop:    make(chan struct{}),
	}

	switch {
	case !cfg.Enabled:
		log.Info("Rate limiting is disabled via configuration.")
	case counter != nil:
		log.Info("Rate limiter using Redis fixed window", "rps", cfg.RPS, "window", rateLimitWindow)
	default:
		log.Info("Rate limiter using in-memory token buckets", "rps", cfg.RPS, "burst", cfg.Burst)
		go rl.cleanupLimiters()
	}
	return rl
}

// Stop ends the idle limiter cleanup loop.
func (rl *RateLimiterMiddleware) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiterMiddleware) getLimiter(ip string) *rate.Limiter {
	limiter, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst))
	return limiter.(*rate.Limiter)
}

func (rl *RateLimiterMiddleware) cleanupLimiters() {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.limiters.Range(func(key, value any) bool {
				limiter := value.(*rate.Limiter)
				if limiter.Tokens() >= float64(rl.cfg.Burst) {
					rl.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (rl *RateLimiterMiddleware) windowLimit() int64 {
	if rl.cfg.RPS < 1 {
		return 1
	}
	return int64(rl.cfg.RPS)
}

// allowShared fails open when Redis is unreachable.
func (rl *RateLimiterMiddleware) allowShared(ctx context.Context, ip string) bool {
	key := fmt.Sprintf("loan-ledger:ratelimit:%s", ip)

	count, err := rl.counter.Incr(ctx, key).Result()
	if err != nil {
		rl.logger.Error("Redis INCR failed during rate limiting check", "error", err, "ip", ip, "key", key)
		return true
	}
	if count == 1 {
		if err := rl.counter.Expire(ctx, key, rateLimitWindow).Err(); err != nil {
			rl.logger.Error("Failed to set Redis EXPIRE for rate limit key", "error", err, "ip", ip, "key", key)
		}
	}
	return count <= rl.windowLimit()
}

func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); xRealIP != "" {
		if net.ParseIP(xRealIP) != nil {
			return xRealIP
		}
	}

	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)

		var allowed bool
		if rl.counter != nil {
			allowed = rl.allowShared(r.Context(), ip)
		} else {
			allowed = rl.getLimiter(ip).Allow()
		}

		if !allowed {
			rl.logger.Warn("Rate limit exceeded", "ip", ip)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rateLimitWindow.Seconds()))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   map[string]string{"message": "Rate limit exceeded"},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
