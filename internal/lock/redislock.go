// Package lock provides a Redis-backed distributed lock used to serialise
// order repairs across api and worker processes.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when the stored token still matches, so
// a holder whose TTL expired cannot release a lock someone else now owns.
var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// Locker acquires per-key locks via SET NX. TTL bounds how long a crashed
// holder can block other writers.
type Locker struct {
	R            *redis.Client
	TTL          time.Duration
	RetryBackoff time.Duration
}

// WithLock runs fn while holding the lock for key, polling until the lock is
// acquired or ctx is cancelled. The lock is always released afterwards, even
// when fn fails.
func (l Locker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	token := uuid.NewString()

	for {
		acquired, err := l.R.SetNX(ctx, key, token, l.ttl()).Result()
		if err != nil {
			return err
		}
		if acquired {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.backoff()):
		}
	}

	// Release against a fresh context so fn cancelling ctx cannot leave the
	// lock held until TTL expiry.
	defer func() {
		_ = releaseScript.Run(context.Background(), l.R, []string{key}, token).Err()
	}()
	return fn(ctx)
}

func (l Locker) ttl() time.Duration {
	if l.TTL <= 0 {
		return 30 * time.Second
	}
	return l.TTL
}

func (l Locker) backoff() time.Duration {
	if l.RetryBackoff <= 0 {
		return 50 * time.Millisecond
	}
	return l.RetryBackoff
}
