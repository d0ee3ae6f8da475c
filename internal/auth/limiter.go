package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	attemptKeyPrefix = "login:attempts:"
	lockKeyPrefix    = "login:lock:"
)

// LoginLimiter はログイン失敗回数を数え、上限に達したキーをロックします。
type LoginLimiter interface {
	// Check はロック中であれば残り時間を返します。
	Check(ctx context.Context, key string) (time.Duration, error)
	// RecordFailure は失敗を記録し、ロックまでの残り回数を返します。
	RecordFailure(ctx context.Context, key string) (int, error)
	// Reset は失敗回数とロックを消去します。
	Reset(ctx context.Context, key string) error
}

// LimiterOptions は試行制限の設定です。
type LimiterOptions struct {
	MaxAttempts  int
	Window       time.Duration
	LockDuration time.Duration
}

// RedisLimiter は失敗回数とロックを Redis に保存します。
// 複数インスタンス間で状態を共有でき、プロセス内に状態を持ちません。
type RedisLimiter struct {
	rdb  *redis.Client
	opts LimiterOptions
}

// NewRedisLimiter は RedisLimiter を作成します。
func NewRedisLimiter(rdb *redis.Client, opts LimiterOptions) *RedisLimiter {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Window <= 0 {
		opts.Window = 15 * time.Minute
	}
	if opts.LockDuration <= 0 {
		opts.LockDuration = 10 * time.Minute
	}
	return &RedisLimiter{rdb: rdb, opts: opts}
}

// Check はロック中であれば残り時間を返します。
func (l *RedisLimiter) Check(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read login lock: %w", err)
	}
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

// RecordFailure は失敗を記録します。上限に達した場合はロックを設定し、カウンタを消去します。
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) (int, error) {
	attemptKey := attemptKeyPrefix + key
	count, err := l.rdb.Incr(ctx, attemptKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record login failure: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, attemptKey, l.opts.Window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set attempt window: %w", err)
		}
	}

	if int(count) >= l.opts.MaxAttempts {
		pipe := l.rdb.TxPipeline()
		pipe.Set(ctx, lockKeyPrefix+key, count, l.opts.LockDuration)
		pipe.Del(ctx, attemptKey)
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, fmt.Errorf("failed to lock login: %w", err)
		}
		return 0, nil
	}

	return l.opts.MaxAttempts - int(count), nil
}

// Reset は失敗回数とロックを消去します。
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, attemptKeyPrefix+key, lockKeyPrefix+key).Err()
}
