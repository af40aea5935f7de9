package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "quote:lock:"

// ErrLockTimeout is returned when another writer holds the quote longer than Wait.
var ErrLockTimeout = errors.New("session: quote is locked by another writer")

// Locker serialises writers of one quote across API instances.
type Locker struct {
	R            *redis.Client
	TTL          time.Duration
	RetryBackoff time.Duration
	// Wait bounds lock acquisition; it defaults to TTL.
	Wait time.Duration
}

// WithQuote runs fn while holding the lock of quote id. The lock is released
// even if fn fails. Cancelling ctx while waiting aborts with ctx.Err().
func (l Locker) WithQuote(ctx context.Context, id string, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("session: redis client not configured")
	}
	if fn == nil {
		return errors.New("session: lock callback not provided")
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	wait := l.Wait
	if wait <= 0 {
		wait = ttl
	}
	key := lockPrefix + id
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(context.Background(), key, token)
			return fn(ctx)
		}
		if !time.Now().Before(deadline) {
			return ErrLockTimeout
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l Locker) release(ctx context.Context, key, token string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := l.R.Eval(ctx, script, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.R.Del(ctx, key).Err()
		}
	}
}
