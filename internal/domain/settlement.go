package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bountyhub-lab/backend/internal/common"
	"github.com/bountyhub-lab/backend/internal/domain/claimtracker"
	"github.com/bountyhub-lab/backend/internal/domain/ledger"
	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/internal/model"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/keylock"
	"github.com/bountyhub-lab/backend/pkg/pubsub"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type SettlementDomain interface {
	SelectWinner(context.Context, *model.SelectWinnerRequest) (*model.SelectWinnerResponse, error)
	Withdraw(context.Context, *model.WithdrawRequest) (*model.WithdrawResponse, error)
}

type settlementDomain struct {
	bountyRepo    repository.BountyRepository
	applicantRepo repository.ApplicantRepository
	claimTracker  claimtracker.Tracker
	ledger        ledger.Ledger
	publisher     pubsub.Publisher
	locker        keylock.Locker
}

func NewSettlementDomain(
	bountyRepo repository.BountyRepository,
	applicantRepo repository.ApplicantRepository,
	claimTracker claimtracker.Tracker,
	ledger ledger.Ledger,
	publisher pubsub.Publisher,
	locker keylock.Locker,
) *settlementDomain {
	return &settlementDomain{
		bountyRepo:    bountyRepo,
		applicantRepo: applicantRepo,
		claimTracker:  claimTracker,
		ledger:        ledger,
		publisher:     publisher,
		locker:        locker,
	}
}

// SelectWinner pays the reward to the talent and completes the bounty in one commit. Locks are
// acquired in the order bounty, talent, account.
func (d *settlementDomain) SelectWinner(
	ctx context.Context, req *model.SelectWinnerRequest,
) (resp *model.SelectWinnerResponse, err error) {
	defer func() { recordResult(common.SettlementTotal, err) }()

	if req.TalentID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty talent id")
	}

	unlockBounty, err := common.AcquireLock(ctx, d.locker, "bounty", common.LockKeyBounty(req.BountyID))
	if err != nil {
		return nil, err
	}
	defer unlockBounty()

	bounty, err := getBounty(ctx, d.bountyRepo, req.BountyID)
	if err != nil {
		return nil, err
	}

	if bounty.CompanyID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Only the owner can select the winner")
	}

	if bounty.Status == entity.BountyCompleted {
		return nil, errorx.New(errorx.AlreadyCompleted, "The winner has been selected already")
	}

	if bounty.Status != entity.BountySubmitted {
		return nil, errorx.New(errorx.InvalidStateTransition,
			"Cannot select the winner of a %s bounty", bounty.Status)
	}

	if bounty.ClaimedBy.String != req.TalentID {
		return nil, errorx.New(errorx.SubmissionMissing, "The talent has not submitted any work")
	}

	applicant, err := d.applicantRepo.Get(ctx, bounty.ID, req.TalentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.SubmissionMissing, "The talent has not submitted any work")
		}

		xcontext.Logger(ctx).Errorf("Cannot get applicant: %v", err)
		return nil, errorx.Unknown
	}

	if applicant.SubmissionURL == "" {
		return nil, errorx.New(errorx.SubmissionMissing, "The talent has not submitted any work")
	}

	unlockTalent, err := d.claimTracker.Lock(ctx, req.TalentID)
	if err != nil {
		return nil, err
	}
	defer unlockTalent()

	unlockAccount, err := d.ledger.Lock(ctx, req.TalentID)
	if err != nil {
		return nil, err
	}
	defer unlockAccount()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	_, err = d.ledger.Credit(ctx, req.TalentID, bounty.RewardMoney, bounty.RewardXP,
		bounty.ID, fmt.Sprintf("Reward of bounty %s", bounty.Title))
	if err != nil {
		return nil, err
	}

	if err := d.bountyRepo.Complete(ctx, bounty.ID, req.TalentID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot complete bounty: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.applicantRepo.MarkWinner(ctx, bounty.ID, req.TalentID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark the winner: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.claimTracker.ReleaseSlot(ctx, req.TalentID); err != nil {
		return nil, err
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit settlement: %v", err)
		return nil, errorx.Unknown
	}

	now := time.Now()
	bounty.Status = entity.BountyCompleted
	bounty.WinnerID = sql.NullString{Valid: true, String: req.TalentID}
	bounty.UpdatedAt = now

	d.publishCompleted(ctx, bounty, now)

	return &model.SelectWinnerResponse{Bounty: model.ConvertBounty(bounty)}, nil
}

// publishCompleted never fails the settlement, the payout is already committed.
func (d *settlementDomain) publishCompleted(ctx context.Context, bounty *entity.Bounty, at time.Time) {
	b, err := json.Marshal(model.BountyCompletedEvent{
		BountyID:    bounty.ID,
		CompanyID:   bounty.CompanyID,
		WinnerID:    bounty.WinnerID.String,
		RewardMoney: bounty.RewardMoney,
		RewardXP:    bounty.RewardXP,
		CompletedAt: at.Format(model.DefaultTimeLayout),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal bounty completed event: %v", err)
		return
	}

	err = d.publisher.Publish(ctx, model.BountyCompletedTopic, &pubsub.Pack{Key: []byte(bounty.ID), Msg: b})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish bounty completed event of %s: %v", bounty.ID, err)
	}
}

func (d *settlementDomain) Withdraw(
	ctx context.Context, req *model.WithdrawRequest,
) (resp *model.WithdrawResponse, err error) {
	defer func() { recordResult(common.WithdrawalTotal, err) }()

	tx, err := d.ledger.Withdraw(ctx, xcontext.RequestUserID(ctx), req.Amount, req.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	return &model.WithdrawResponse{Transaction: model.ConvertTransaction(tx)}, nil
}
