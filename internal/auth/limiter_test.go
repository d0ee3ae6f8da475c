package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, opts LimiterOptions) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLimiter(rdb, opts), mr
}

func TestRedisLimiterLocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestLimiter(t, LimiterOptions{MaxAttempts: 3, Window: time.Minute, LockDuration: 10 * time.Minute})

	for i, want := range []int{2, 1, 0} {
		remaining, err := limiter.RecordFailure(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("RecordFailure #%d returned error: %v", i+1, err)
		}
		if remaining != want {
			t.Fatalf("RecordFailure #%d remaining = %d, want %d", i+1, remaining, want)
		}
	}

	retryAfter, err := limiter.Check(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if retryAfter <= 0 || retryAfter > 10*time.Minute {
		t.Fatalf("unexpected retryAfter: %s", retryAfter)
	}

	other, err := limiter.Check(ctx, "10.0.0.2")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if other != 0 {
		t.Fatalf("unrelated key must not be locked: %s", other)
	}
}

func TestRedisLimiterLockExpires(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newTestLimiter(t, LimiterOptions{MaxAttempts: 1, Window: time.Minute, LockDuration: time.Minute})

	if _, err := limiter.RecordFailure(ctx, "ip"); err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	retryAfter, err := limiter.Check(ctx, "ip")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if retryAfter != 0 {
		t.Fatalf("expected lock to expire, got %s", retryAfter)
	}
}

func TestRedisLimiterWindowResetsCount(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newTestLimiter(t, LimiterOptions{MaxAttempts: 3, Window: time.Minute, LockDuration: time.Minute})

	if _, err := limiter.RecordFailure(ctx, "ip"); err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	remaining, err := limiter.RecordFailure(ctx, "ip")
	if err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("expected a fresh window, remaining = %d", remaining)
	}
}

func TestRedisLimiterReset(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestLimiter(t, LimiterOptions{MaxAttempts: 1, Window: time.Minute, LockDuration: time.Minute})

	if _, err := limiter.RecordFailure(ctx, "ip"); err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}
	if err := limiter.Reset(ctx, "ip"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	retryAfter, err := limiter.Check(ctx, "ip")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if retryAfter != 0 {
		t.Fatalf("expected no lock after reset, got %s", retryAfter)
	}
}
