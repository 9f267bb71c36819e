package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/dto"
	"github.com/Mithun-VK/trading-chatbot/internal/logger"
)

// RateResult is the outcome of one rate check.
type RateResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateStore counts requests per key.
type RateStore interface {
	Allow(ctx context.Context, key string) (RateResult, error)
}

// client represents a rate-limited client with request count and window start.
type client struct {
	windowStart time.Time
	count       int
}

// MemoryRateStore is a per-process fixed window keyed by client.
// Suitable for a single instance; use RedisRateStore when running several.
type MemoryRateStore struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryRateStore allows limit requests per window for each key.
func NewMemoryRateStore(limit int, window time.Duration) *MemoryRateStore {
	return &MemoryRateStore{
		clients: make(map[string]*client),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (s *MemoryRateStore) Allow(_ context.Context, key string) (RateResult, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	cl, ok := s.clients[key]
	if !ok || now.Sub(cl.windowStart) >= s.window {
		cl = &client{windowStart: now}
		s.clients[key] = cl
		s.evict(now)
	}
	cl.count++

	if cl.count > s.limit {
		return RateResult{RetryAfter: cl.windowStart.Add(s.window).Sub(now)}, nil
	}
	return RateResult{Allowed: true, Remaining: s.limit - cl.count}, nil
}

// evict drops clients whose window ended long ago; called with mu held.
func (s *MemoryRateStore) evict(now time.Time) {
	if len(s.clients) < 1024 {
		return
	}
	for k, cl := range s.clients {
		if now.Sub(cl.windowStart) >= 2*s.window {
			delete(s.clients, k)
		}
	}
}

// RedisRateStore shares the budget across instances through Redis (GCRA via redis_rate).
type RedisRateStore struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	prefix  string
}

// NewRedisRateStore allows limit requests per window for each key.
func NewRedisRateStore(rdb *redis.Client, limit int, window time.Duration) *RedisRateStore {
	return &RedisRateStore{
		limiter: redis_rate.NewLimiter(rdb),
		limit:   redis_rate.Limit{Rate: limit, Burst: limit, Period: window},
		prefix:  "stockchat:ratelimit:",
	}
}

func (s *RedisRateStore) Allow(ctx context.Context, key string) (RateResult, error) {
	res, err := s.limiter.Allow(ctx, s.prefix+key, s.limit)
	if err != nil {
		return RateResult{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	return RateResult{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}, nil
}

// RateLimiter limits the number of requests per client IP using store.
//
// Behavior:
//   - Identifies clients by their IP address.
//   - If the limit is exceeded, returns HTTP 429 with a Retry-After header.
//   - If the store itself fails, the request is let through and the failure logged.
//
// Response when limit exceeded:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: 42
//	{"message": "rate limit exceeded", "timestamp": "..."}
func RateLimiter(store RateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := store.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.L().Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(retrySeconds(res.RetryAfter)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate limit exceeded", nil))
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Next()
	}
}

func retrySeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
