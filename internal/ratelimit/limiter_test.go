package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1700000000, 0)
	key := InviteKey(42)

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(context.Background(), key, 3, now)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if res.Remaining != 3-(i+1) {
			t.Fatalf("remaining = %d, want %d", res.Remaining, 3-(i+1))
		}
	}

	res, err := limiter.Allow(context.Background(), key, 3, now)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatalf("fourth request in window should be denied")
	}

	res, err = limiter.Allow(context.Background(), key, 3, now.Add(time.Second))
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("next window should reset the count")
	}
}

func TestMemoryLimiter_Disabled(t *testing.T) {
	limiter := NewMemoryLimiter()
	res, err := limiter.Allow(context.Background(), InviteKey(1), 0, time.Now())
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("zero limit should disable limiting")
	}
	res, err = limiter.Allow(context.Background(), InviteKey(0), 5, time.Now())
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("empty key should disable limiting")
	}
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	limiter := NewRedisLimiter(client, "caregrid:rl")
	now := time.Unix(1700000000, 0)
	key := InviteKey(7)

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(context.Background(), key, 2, now)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res, err := limiter.Allow(context.Background(), key, 2, now)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatalf("third request in window should be denied")
	}

	res, err = limiter.Allow(context.Background(), key, 2, now.Add(time.Second))
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("next window should reset the count")
	}
}
