// Package ratelimit provides fixed-window per-second rate limiting for
// invitation creation, in-memory for a single process or Redis-backed when
// several instances share the limit.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

// InviteKey builds the limiter key for a caller's invitation activity.
func InviteKey(userID uint64) string {
	if userID == 0 {
		return ""
	}
	return fmt.Sprintf("invite:u:%d", userID)
}
