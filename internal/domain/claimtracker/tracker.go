// Package claimtracker enforces the maximum number of bounties a talent can hold at the same time.
// A bounty is held while it is CLAIMED or SUBMITTED.
package claimtracker

import (
	"context"
	"errors"

	"github.com/bountyhub-lab/backend/internal/common"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/keylock"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type Tracker interface {
	// Lock must be held while reserving or releasing slots of the talent, and must be acquired
	// after the bounty lock.
	Lock(ctx context.Context, talentID string) (keylock.Unlock, error)

	// TryReserveSlot and ReleaseSlot write through the DB in ctx, so callers can include them in
	// their own transaction.
	TryReserveSlot(ctx context.Context, talentID string) error
	ReleaseSlot(ctx context.Context, talentID string) error

	ActiveClaims(ctx context.Context, talentID string) (int, error)
}

type tracker struct {
	claimSlotRepo repository.ClaimSlotRepository
	locker        keylock.Locker
}

func New(claimSlotRepo repository.ClaimSlotRepository, locker keylock.Locker) *tracker {
	return &tracker{claimSlotRepo: claimSlotRepo, locker: locker}
}

func (t *tracker) Lock(ctx context.Context, talentID string) (keylock.Unlock, error) {
	return common.AcquireLock(ctx, t.locker, "talent", common.LockKeyTalent(talentID))
}

func (t *tracker) TryReserveSlot(ctx context.Context, talentID string) error {
	limit := xcontext.Configs(ctx).Bounty.MaxActiveClaims
	if err := t.claimSlotRepo.Reserve(ctx, talentID, limit); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.ClaimLimitExceeded,
				"You can only hold %d bounties at the same time", limit)
		}

		xcontext.Logger(ctx).Errorf("Cannot reserve claim slot: %v", err)
		return errorx.Unknown
	}

	return nil
}

func (t *tracker) ReleaseSlot(ctx context.Context, talentID string) error {
	if err := t.claimSlotRepo.Release(ctx, talentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.IncCounter(common.InvariantViolationTotal, "claim_slot_underflow")
			xcontext.Logger(ctx).Errorf("Release a claim slot of talent %s which has no active claim", talentID)
			return errorx.New(errorx.InvariantViolation, "Claim slot underflow")
		}

		xcontext.Logger(ctx).Errorf("Cannot release claim slot: %v", err)
		return errorx.Unknown
	}

	return nil
}

func (t *tracker) ActiveClaims(ctx context.Context, talentID string) (int, error) {
	slot, err := t.claimSlotRepo.Get(ctx, talentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get claim slot: %v", err)
		return 0, errorx.Unknown
	}

	return slot.ActiveClaims, nil
}
