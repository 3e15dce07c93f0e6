package errorx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(AlreadyClaimed, "Bounty %s is claimed", "b1")
	require.Equal(t, "Bounty b1 is claimed", err.Error())
	require.True(t, Is(err, AlreadyClaimed))
	require.False(t, Is(err, EventFull))
}

func TestIs_Wrapped(t *testing.T) {
	err := fmt.Errorf("wrap: %w", New(Busy, "Busy"))
	require.True(t, Is(err, Busy))
	require.True(t, Retryable(err))
	require.False(t, Is(fmt.Errorf("plain"), Busy))
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindConflict, KindOf(New(EventFull, "full")))
	require.Equal(t, KindValidation, KindOf(New(InsufficientBalance, "x")))
	require.Equal(t, KindInvariant, KindOf(New(InvariantViolation, "x")))
	require.Equal(t, KindTransient, KindOf(New(Busy, "x")))
	require.Equal(t, KindUnknown, KindOf(Unknown))
	require.Equal(t, KindUnknown, KindOf(fmt.Errorf("x")))
	require.False(t, Retryable(New(AlreadyClaimed, "x")))
}
