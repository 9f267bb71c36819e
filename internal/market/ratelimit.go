package market

import (
	"context"
	"sync"
	"time"

	"github.com/Mithun-VK/trading-chatbot/internal/logger"
	"github.com/Mithun-VK/trading-chatbot/internal/metrics"
)

const (
	DefaultRateLimit  = 30
	DefaultRateWindow = time.Minute
)

// RateLimiter is a fixed-window counter gating calls to the market-data provider.
//
// Acquire never rejects: once the window budget is spent the caller sleeps until
// the window ends, then the whole window is reset and the caller proceeds. Callers
// queued behind a sleeping caller therefore see a fresh window, so concurrent
// bursts can exceed the limit slightly. The mutex only guards bookkeeping and is
// never held while sleeping.
type RateLimiter struct {
	clock  Clock
	limit  int
	window time.Duration

	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// NewRateLimiter builds a limiter allowing limit calls per window.
// Non-positive values fall back to 30 calls per 60 seconds.
func NewRateLimiter(limit int, window time.Duration, clock Clock) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &RateLimiter{
		clock:   clock,
		limit:   limit,
		window:  window,
		resetAt: clock.Now().Add(window),
	}
}

// Acquire takes one slot, suspending the caller until the window ends when the
// budget is exhausted. The only error is ctx cancellation while waiting.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	now := l.clock.Now()
	if !now.Before(l.resetAt) {
		l.count = 0
		l.resetAt = now.Add(l.window)
	}
	if l.count < l.limit {
		l.count++
		l.mu.Unlock()
		return nil
	}
	wait := l.resetAt.Sub(now)
	l.mu.Unlock()

	logger.L().Debug().Dur("wait", wait).Int("limit", l.limit).Msg("market rate window exhausted, waiting")
	if err := l.clock.Sleep(ctx, wait); err != nil {
		return err
	}
	metrics.LimiterWait.Observe(wait.Seconds())

	l.mu.Lock()
	l.count = 1
	l.resetAt = l.clock.Now().Add(l.window)
	l.mu.Unlock()
	return nil
}

// Snapshot returns the current counter and window end.
func (l *RateLimiter) Snapshot() (count int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count, l.resetAt
}
