// Package keylock provides mutual exclusion keyed by an aggregate identifier (a bounty, a talent,
// an account or an event). Acquisition is bounded by a timeout so a stuck holder surfaces as a
// transient error instead of blocking callers forever.
package keylock

import (
	"context"
	"errors"
)

var ErrTimeout = errors.New("keylock: timed out waiting for lock")

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}
