package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryWindow struct {
	sec   int64
	count int
}

// MemoryLimiter implements a fixed-window in-memory rate limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*memoryWindow)}
}

// Allow checks whether the request fits the limit for the current second.
// A non-positive limit or empty key disables limiting.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	sec := now.Unix()
	reset := time.Unix(sec+1, 0).UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.windows[key]
	if window == nil || window.sec != sec {
		window = &memoryWindow{sec: sec}
		l.windows[key] = window
	}
	if window.count >= limit {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	window.count++
	return Result{Allowed: true, Remaining: limit - window.count, Reset: reset}, nil
}
