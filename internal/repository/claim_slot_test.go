package repository

import (
	"errors"
	"testing"

	"github.com/bountyhub-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func Test_claimSlotRepository_ReserveAndRelease(t *testing.T) {
	ctx := testutil.NewMockContext()
	r := NewClaimSlotRepository()

	// Releasing without any claim fails instead of going negative.
	assert.True(t, errors.Is(r.Release(ctx, testutil.Talent1), gorm.ErrRecordNotFound))

	for i := 0; i < 3; i++ {
		assert.NoError(t, r.Reserve(ctx, testutil.Talent1, 3))
	}
	assert.True(t, errors.Is(r.Reserve(ctx, testutil.Talent1, 3), gorm.ErrRecordNotFound))

	slot, err := r.Get(ctx, testutil.Talent1)
	assert.NoError(t, err)
	assert.Equal(t, 3, slot.ActiveClaims)

	assert.NoError(t, r.Release(ctx, testutil.Talent1))
	assert.NoError(t, r.Reserve(ctx, testutil.Talent1, 3))

	// Slots are counted per talent.
	assert.NoError(t, r.Reserve(ctx, testutil.Talent2, 3))
	slot, err = r.Get(ctx, testutil.Talent2)
	assert.NoError(t, err)
	assert.Equal(t, 1, slot.ActiveClaims)
}
