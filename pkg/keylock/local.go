package keylock

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync"
)

// localSlot is held by the owner of the key and every goroutine waiting for it. It is removed
// from the map once the last of them leaves.
type localSlot struct {
	ch chan struct{}

	mu      sync.Mutex
	refs    int
	deleted bool
}

type localLocker struct {
	timeout time.Duration
	slots   *xsync.MapOf[string, *localSlot]
}

// NewLocalLocker returns a Locker which only excludes goroutines of the current process.
func NewLocalLocker(timeout time.Duration) *localLocker {
	return &localLocker{
		timeout: timeout,
		slots:   xsync.NewMapOf[*localSlot](),
	}
}

func (l *localLocker) acquire(key string) *localSlot {
	for {
		slot, _ := l.slots.LoadOrCompute(key, func() *localSlot {
			return &localSlot{ch: make(chan struct{}, 1)}
		})

		slot.mu.Lock()
		if slot.deleted {
			// Removed between load and lock, retry with a fresh slot.
			slot.mu.Unlock()
			continue
		}
		slot.refs++
		slot.mu.Unlock()
		return slot
	}
}

func (l *localLocker) release(key string, slot *localSlot) {
	slot.mu.Lock()
	defer slot.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		slot.deleted = true
		l.slots.Delete(key)
	}
}

func (l *localLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	slot := l.acquire(key)

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
		once := sync.Once{}
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(key, slot)
			})
		}, nil
	case <-timer.C:
		l.release(key, slot)
		return nil, ErrTimeout
	case <-ctx.Done():
		l.release(key, slot)
		return nil, ctx.Err()
	}
}
