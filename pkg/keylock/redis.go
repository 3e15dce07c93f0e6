package keylock

import (
	"context"
	"sync"
	"time"

	"github.com/bountyhub-lab/backend/pkg/xredis"
	"github.com/google/uuid"
)

const (
	minRetryBackoff = 5 * time.Millisecond
	maxRetryBackoff = 100 * time.Millisecond
)

type redisLocker struct {
	client  xredis.Client
	timeout time.Duration
	ttl     time.Duration
}

// NewRedisLocker returns a Locker shared by every instance connecting to the same redis. The ttl
// bounds how long a crashed holder keeps the key.
func NewRedisLocker(client xredis.Client, timeout, ttl time.Duration) *redisLocker {
	return &redisLocker{client: client, timeout: timeout, ttl: ttl}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.timeout)
	backoff := minRetryBackoff

	for {
		ok, err := l.client.SetNX(ctx, lockKey(key), token, l.ttl)
		if err != nil {
			return nil, err
		}

		if ok {
			once := sync.Once{}
			return func() {
				once.Do(func() {
					// Use a fresh context, the caller's one may be canceled already.
					_, _ = l.client.CompareAndDel(context.Background(), lockKey(key), token)
				})
			}, nil
		}

		if time.Now().Add(backoff).After(deadline) {
			return nil, ErrTimeout
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

func lockKey(key string) string {
	return "lock:" + key
}
