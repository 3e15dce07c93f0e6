package keylock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalLocker(time.Second)

	var inside, maxInside int32
	wg := sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "bounty:1")
			require.NoError(t, err)
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}

	wg.Wait()
	require.Equal(t, int32(1), maxInside)
}

func TestLocalLocker_Timeout(t *testing.T) {
	locker := NewLocalLocker(20 * time.Millisecond)

	unlock, err := locker.Lock(context.Background(), "account:1")
	require.NoError(t, err)

	_, err = locker.Lock(context.Background(), "account:1")
	require.ErrorIs(t, err, ErrTimeout)

	// Other keys are independent.
	unlockOther, err := locker.Lock(context.Background(), "account:2")
	require.NoError(t, err)
	unlockOther()

	unlock()
	unlock()

	unlock, err = locker.Lock(context.Background(), "account:1")
	require.NoError(t, err)
	unlock()
}

func TestLocalLocker_ContextCanceled(t *testing.T) {
	locker := NewLocalLocker(time.Second)

	unlock, err := locker.Lock(context.Background(), "event:1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = locker.Lock(ctx, "event:1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalLocker_ReleasesSlots(t *testing.T) {
	locker := NewLocalLocker(time.Second)

	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), fmt.Sprintf("bounty:%d", i%5))
			require.NoError(t, err)
			unlock()
		}(i)
	}
	wg.Wait()
	require.Equal(t, 0, locker.slots.Size())

	// Timed out waiters leave nothing behind either.
	unlock, err := locker.Lock(context.Background(), "talent:1")
	require.NoError(t, err)
	locker.timeout = 10 * time.Millisecond
	_, err = locker.Lock(context.Background(), "talent:1")
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, 1, locker.slots.Size())

	unlock()
	require.Equal(t, 0, locker.slots.Size())

	unlock, err = locker.Lock(context.Background(), "talent:1")
	require.NoError(t, err)
	unlock()
	require.Equal(t, 0, locker.slots.Size())
}
