// Package ratelimit provides the request pacing and retry primitives shared
// by the venue clients.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a fixed minimum interval between consecutive requests.
// This is strict single-slot pacing, not a token bucket: idle time never
// accumulates burst credit.
type Limiter struct {
	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// NewLimiter creates a limiter allowing requestsPerSecond calls per second.
// Zero disables limiting entirely.
func NewLimiter(requestsPerSecond int) *Limiter {
	var interval time.Duration
	if requestsPerSecond > 0 {
		interval = time.Duration(float64(time.Second) / float64(requestsPerSecond))
	}

	return &Limiter{
		lastRequest: time.Now().Add(-interval),
		minInterval: interval,
	}
}

// Wait blocks until at least minInterval has elapsed since the previous
// call, then records the new request time. Returns early with ctx.Err() if
// the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	remaining := l.minInterval - time.Since(l.lastRequest)
	if remaining <= 0 {
		l.lastRequest = time.Now()
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	l.mu.Lock()
	l.lastRequest = time.Now()
	l.mu.Unlock()

	return nil
}
