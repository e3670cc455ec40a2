package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// OperationLimiter throttles outbound provider calls, one token bucket per
// provider operation.
type OperationLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	defaults RateLimitConfig
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultConfig matches the provider's test environment quota.
func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         10,
	}
}

func NewOperationLimiter(config RateLimitConfig) *OperationLimiter {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if config.BurstSize <= 0 {
		config.BurstSize = DefaultConfig().BurstSize
	}
	return &OperationLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: config,
	}
}

func (l *OperationLimiter) GetLimiter(operation string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[operation]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists = l.limiters[operation]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(l.defaults.RequestsPerSecond), l.defaults.BurstSize)
	l.limiters[operation] = limiter
	return limiter
}

// SetOperationLimit gives one operation its own quota in place of the
// defaults.
func (l *OperationLimiter) SetOperationLimit(operation string, rps float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limiters[operation] = rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until the operation may proceed or ctx is done. A nil limiter
// never blocks.
func (l *OperationLimiter) Wait(ctx context.Context, operation string) error {
	if l == nil {
		return nil
	}
	return l.GetLimiter(operation).Wait(ctx)
}
