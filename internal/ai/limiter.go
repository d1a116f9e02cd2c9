package ai

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// limiter 简单令牌桶：每个 window 补满 limit 个令牌
type limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	tokens   int
	lastTick time.Time
}

func newLimiter(limit int, window time.Duration) *limiter {
	return &limiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		tokens:   limit,
		lastTick: time.Now(),
	}
}

func (l *limiter) wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(l.lastTick)
	if elapsed >= l.window {
		l.tokens = l.limit
		l.lastTick = now
		elapsed = 0
	}

	if l.tokens > 0 {
		l.tokens--
		return nil
	}

	wait := l.window - elapsed
	l.mu.Unlock()
	slog.Info("rate limit reached, waiting", "duration", wait)
	select {
	case <-ctx.Done():
		l.mu.Lock()
		return ctx.Err()
	case <-time.After(wait):
	}
	l.mu.Lock()
	l.tokens = l.limit - 1
	l.lastTick = l.now()
	return nil
}
