package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer inserts a human-sized pause before interactive page steps.
type Pacer interface {
	Pause(ctx context.Context) error
	SetDelay(min, max time.Duration)
}

type SimpleRateLimiter struct {
	minDelay time.Duration
	maxDelay time.Duration
	mu       sync.Mutex
	jitter   bool
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewSimpleRateLimiter(minDelay, maxDelay time.Duration) *SimpleRateLimiter {
	return &SimpleRateLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		jitter:   true,
		sleep:    sleepContext,
	}
}

// Pause blocks for a delay drawn from [min, max) and returns early with the
// context error when ctx is done.
func (r *SimpleRateLimiter) Pause(ctx context.Context) error {
	r.mu.Lock()
	delay := r.calculateDelay()
	r.mu.Unlock()

	if delay <= 0 {
		return ctx.Err()
	}
	return r.sleep(ctx, delay)
}

func (r *SimpleRateLimiter) SetDelay(min, max time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.minDelay = min
	r.maxDelay = max
}

func (r *SimpleRateLimiter) calculateDelay() time.Duration {
	if !r.jitter || r.maxDelay <= r.minDelay {
		return r.minDelay
	}

	delta := r.maxDelay - r.minDelay
	jitter := time.Duration(rand.Int63n(int64(delta)))
	return r.minDelay + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
