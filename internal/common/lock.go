package common

import (
	"context"
	"errors"
	"time"

	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/keylock"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
)

// AcquireLock locks the key of an aggregate. A timeout is reported as a retryable Busy error.
func AcquireLock(
	ctx context.Context, locker keylock.Locker, aggregate, key string,
) (keylock.Unlock, error) {
	start := time.Now()
	unlock, err := locker.Lock(ctx, key)
	ObserveHistogram(LockWaitSeconds, time.Since(start).Seconds(), aggregate)

	if err != nil {
		if errors.Is(err, keylock.ErrTimeout) {
			IncCounter(LockTimeoutTotal, aggregate)
			xcontext.Logger(ctx).Warnf("Timed out waiting for lock %s", key)
			return nil, errorx.New(errorx.Busy, "The %s is busy, please try again later", aggregate)
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, errorx.New(errorx.Unavailable, "Request is canceled")
		}

		xcontext.Logger(ctx).Errorf("Cannot acquire lock %s: %v", key, err)
		return nil, errorx.Unknown
	}

	return unlock, nil
}
