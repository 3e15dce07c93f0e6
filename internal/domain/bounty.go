package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bountyhub-lab/backend/internal/common"
	"github.com/bountyhub-lab/backend/internal/domain/claimtracker"
	"github.com/bountyhub-lab/backend/internal/domain/ledger"
	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/internal/model"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/enum"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/keylock"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type BountyDomain interface {
	Create(context.Context, *model.CreateBountyRequest) (*model.CreateBountyResponse, error)
	UpdateReward(context.Context, *model.UpdateBountyRewardRequest) (*model.UpdateBountyRewardResponse, error)
	Claim(context.Context, *model.ClaimBountyRequest) (*model.ClaimBountyResponse, error)
	Unclaim(context.Context, *model.UnclaimBountyRequest) (*model.UnclaimBountyResponse, error)
	Submit(context.Context, *model.SubmitWorkRequest) (*model.SubmitWorkResponse, error)
	Close(context.Context, *model.CloseBountyRequest) (*model.CloseBountyResponse, error)
	Get(context.Context, *model.GetBountyRequest) (*model.GetBountyResponse, error)
	GetList(context.Context, *model.GetListBountyRequest) (*model.GetListBountyResponse, error)
	GetApplicants(context.Context, *model.GetApplicantsRequest) (*model.GetApplicantsResponse, error)
	GetMyClaims(context.Context, *model.GetMyClaimsRequest) (*model.GetMyClaimsResponse, error)

	// CloseExpired closes open bounties whose deadline has passed and returns how many bounties
	// were closed.
	CloseExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

type bountyDomain struct {
	bountyRepo      repository.BountyRepository
	applicantRepo   repository.ApplicantRepository
	idempotencyRepo repository.IdempotencyRepository
	claimTracker    claimtracker.Tracker
	ledger          ledger.Ledger
	locker          keylock.Locker
}

func NewBountyDomain(
	bountyRepo repository.BountyRepository,
	applicantRepo repository.ApplicantRepository,
	idempotencyRepo repository.IdempotencyRepository,
	claimTracker claimtracker.Tracker,
	ledger ledger.Ledger,
	locker keylock.Locker,
) *bountyDomain {
	return &bountyDomain{
		bountyRepo:      bountyRepo,
		applicantRepo:   applicantRepo,
		idempotencyRepo: idempotencyRepo,
		claimTracker:    claimTracker,
		ledger:          ledger,
		locker:          locker,
	}
}

func (d *bountyDomain) lockBounty(ctx context.Context, bountyID string) (keylock.Unlock, error) {
	return common.AcquireLock(ctx, d.locker, "bounty", common.LockKeyBounty(bountyID))
}

func (d *bountyDomain) Create(
	ctx context.Context, req *model.CreateBountyRequest,
) (*model.CreateBountyResponse, error) {
	if req.Title == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty title")
	}

	if req.RewardMoney < 0 || req.RewardXP < 0 {
		return nil, errorx.New(errorx.BadRequest, "Reward must not be negative")
	}

	if req.MinLevel < 0 {
		return nil, errorx.New(errorx.BadRequest, "Min level must not be negative")
	}

	deadline := sql.NullTime{}
	if !req.Deadline.IsZero() {
		if !req.Deadline.After(time.Now()) {
			return nil, errorx.New(errorx.BadRequest, "Deadline must be in the future")
		}
		deadline = sql.NullTime{Valid: true, Time: req.Deadline}
	}

	bounty := &entity.Bounty{
		Base:        entity.Base{ID: uuid.NewString()},
		CompanyID:   xcontext.RequestUserID(ctx),
		Title:       req.Title,
		Description: req.Description,
		RewardMoney: req.RewardMoney,
		RewardXP:    req.RewardXP,
		MinLevel:    req.MinLevel,
		Deadline:    deadline,
		Status:      entity.BountyOpen,
	}

	if err := d.bountyRepo.Create(ctx, bounty); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create bounty: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateBountyResponse{Bounty: model.ConvertBounty(bounty)}, nil
}

func (d *bountyDomain) UpdateReward(
	ctx context.Context, req *model.UpdateBountyRewardRequest,
) (*model.UpdateBountyRewardResponse, error) {
	if req.RewardMoney < 0 || req.RewardXP < 0 {
		return nil, errorx.New(errorx.BadRequest, "Reward must not be negative")
	}

	unlock, err := d.lockBounty(ctx, req.BountyID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	bounty, err := getBounty(ctx, d.bountyRepo, req.BountyID)
	if err != nil {
		return nil, err
	}

	if bounty.CompanyID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Only the owner can update the reward")
	}

	if bounty.Status != entity.BountyOpen {
		return nil, errorx.New(errorx.InvalidStateTransition,
			"Reward cannot be changed once the bounty is %s", bounty.Status)
	}

	if err := d.bountyRepo.UpdateReward(ctx, bounty.ID, req.RewardMoney, req.RewardXP); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update reward: %v", err)
		return nil, errorx.Unknown
	}

	bounty.RewardMoney = req.RewardMoney
	bounty.RewardXP = req.RewardXP
	return &model.UpdateBountyRewardResponse{Bounty: model.ConvertBounty(bounty)}, nil
}

func (d *bountyDomain) Claim(
	ctx context.Context, req *model.ClaimBountyRequest,
) (resp *model.ClaimBountyResponse, err error) {
	defer func() { recordResult(common.BountyClaimTotal, err) }()

	userID := xcontext.RequestUserID(ctx)
	unlockBounty, err := d.lockBounty(ctx, req.BountyID)
	if err != nil {
		return nil, err
	}
	defer unlockBounty()

	bounty, err := getBounty(ctx, d.bountyRepo, req.BountyID)
	if err != nil {
		return nil, err
	}

	used, err := lookupIdempotencyKey(
		ctx, d.idempotencyRepo, entity.IdempotencyClaimBounty, userID, req.IdempotencyKey, bounty.ID)
	if err != nil {
		return nil, err
	}

	if used {
		return &model.ClaimBountyResponse{Bounty: model.ConvertBounty(bounty)}, nil
	}

	switch bounty.Status {
	case entity.BountyOpen:
	case entity.BountyClaimed, entity.BountySubmitted:
		if bounty.ClaimedBy.String == userID {
			// Claiming twice is a no-op.
			return &model.ClaimBountyResponse{Bounty: model.ConvertBounty(bounty)}, nil
		}
		return nil, errorx.New(errorx.AlreadyClaimed, "The bounty is claimed by another talent")
	default:
		return nil, errorx.New(errorx.InvalidStateTransition, "Cannot claim a %s bounty", bounty.Status)
	}

	if bounty.Deadline.Valid && bounty.Deadline.Time.Before(time.Now()) {
		return nil, errorx.New(errorx.Unavailable, "The bounty has expired")
	}

	warning, err := d.checkLevel(ctx, userID, bounty)
	if err != nil {
		return nil, err
	}

	unlockTalent, err := d.claimTracker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlockTalent()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.bountyRepo.Claim(ctx, bounty.ID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.AlreadyClaimed, "The bounty is claimed by another talent")
		}

		xcontext.Logger(ctx).Errorf("Cannot claim bounty: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.claimTracker.TryReserveSlot(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	err = d.applicantRepo.Create(ctx, &entity.Applicant{
		ID:        uuid.NewString(),
		BountyID:  bounty.ID,
		UserID:    userID,
		ClaimedAt: now,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create applicant: %v", err)
		return nil, errorx.Unknown
	}

	err = saveIdempotencyKey(
		ctx, d.idempotencyRepo, entity.IdempotencyClaimBounty, userID, req.IdempotencyKey, bounty.ID)
	if err != nil {
		return nil, err
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit claim: %v", err)
		return nil, errorx.Unknown
	}

	bounty.Status = entity.BountyClaimed
	bounty.ClaimedBy = sql.NullString{Valid: true, String: userID}
	bounty.UpdatedAt = now

	return &model.ClaimBountyResponse{Bounty: model.ConvertBounty(bounty), Warning: warning}, nil
}

// checkLevel never blocks the claim, it only returns a warning when the talent's level is lower
// than the required one.
func (d *bountyDomain) checkLevel(ctx context.Context, userID string, bounty *entity.Bounty) (string, error) {
	if bounty.MinLevel <= 1 {
		return "", nil
	}

	var xp int64
	account, err := d.ledger.Get(ctx, userID)
	if err != nil {
		if !errorx.Is(err, errorx.NotFound) {
			return "", err
		}
	} else {
		xp = account.BalanceXP
	}

	level := common.Level(xp, xcontext.Configs(ctx).Bounty.XPPerLevel)
	if level >= bounty.MinLevel {
		return "", nil
	}

	xcontext.Logger(ctx).Warnf("Talent %s (level %d) claims bounty %s requiring level %d",
		userID, level, bounty.ID, bounty.MinLevel)
	return fmt.Sprintf("Your level (%d) is lower than the required level (%d)", level, bounty.MinLevel), nil
}

func (d *bountyDomain) Unclaim(
	ctx context.Context, req *model.UnclaimBountyRequest,
) (*model.UnclaimBountyResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	unlockBounty, err := d.lockBounty(ctx, req.BountyID)
	if err != nil {
		return nil, err
	}
	defer unlockBounty()

	bounty, err := getBounty(ctx, d.bountyRepo, req.BountyID)
	if err != nil {
		return nil, err
	}

	if bounty.ClaimedBy.String != userID {
		return nil, errorx.New(errorx.NotClaimedByCaller, "You are not holding this bounty")
	}

	if bounty.Status != entity.BountyClaimed {
		return nil, errorx.New(errorx.InvalidStateTransition, "Cannot unclaim a %s bounty", bounty.Status)
	}

	unlockTalent, err := d.claimTracker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlockTalent()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.bountyRepo.Unclaim(ctx, bounty.ID, userID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot unclaim bounty: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.applicantRepo.Delete(ctx, bounty.ID, userID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete applicant: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.claimTracker.ReleaseSlot(ctx, userID); err != nil {
		return nil, err
	}

	err = expireIdempotencyKeys(ctx, d.idempotencyRepo, entity.IdempotencyClaimBounty, userID, bounty.ID)
	if err != nil {
		return nil, err
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit unclaim: %v", err)
		return nil, errorx.Unknown
	}

	bounty.Status = entity.BountyOpen
	bounty.ClaimedBy = sql.NullString{}
	return &model.UnclaimBountyResponse{Bounty: model.ConvertBounty(bounty)}, nil
}

func (d *bountyDomain) Submit(
	ctx context.Context, req *model.SubmitWorkRequest,
) (*model.SubmitWorkResponse, error) {
	if err := common.IsValidURL(req.URL); err != nil {
		xcontext.Logger(ctx).Debugf("Invalid submission url: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid submission url")
	}

	userID := xcontext.RequestUserID(ctx)
	unlock, err := d.lockBounty(ctx, req.BountyID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	bounty, err := getBounty(ctx, d.bountyRepo, req.BountyID)
	if err != nil {
		return nil, err
	}

	if bounty.ClaimedBy.String != userID {
		return nil, errorx.New(errorx.NotClaimedByCaller, "You are not holding this bounty")
	}

	if bounty.Status != entity.BountyClaimed {
		return nil, errorx.New(errorx.InvalidStateTransition, "Cannot submit work to a %s bounty", bounty.Status)
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.bountyRepo.Submit(ctx, bounty.ID, userID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot submit bounty: %v", err)
		return nil, errorx.Unknown
	}

	err = d.applicantRepo.Submit(ctx, bounty.ID, userID, req.URL, req.Notes, time.Now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update submission: %v", err)
		return nil, errorx.Unknown
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit submission: %v", err)
		return nil, errorx.Unknown
	}

	bounty.Status = entity.BountySubmitted
	return &model.SubmitWorkResponse{Bounty: model.ConvertBounty(bounty)}, nil
}

func (d *bountyDomain) Close(
	ctx context.Context, req *model.CloseBountyRequest,
) (*model.CloseBountyResponse, error) {
	unlock, err := d.lockBounty(ctx, req.BountyID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	bounty, err := getBounty(ctx, d.bountyRepo, req.BountyID)
	if err != nil {
		return nil, err
	}

	if bounty.CompanyID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Only the owner can close the bounty")
	}

	if err := d.close(ctx, bounty); err != nil {
		return nil, err
	}

	return &model.CloseBountyResponse{Bounty: model.ConvertBounty(bounty)}, nil
}

// close must be called while holding the bounty lock.
func (d *bountyDomain) close(ctx context.Context, bounty *entity.Bounty) error {
	if bounty.Status != entity.BountyOpen && bounty.Status != entity.BountyClaimed {
		return errorx.New(errorx.InvalidStateTransition, "Cannot close a %s bounty", bounty.Status)
	}

	claimer := ""
	if bounty.Status == entity.BountyClaimed {
		claimer = bounty.ClaimedBy.String
		unlockTalent, err := d.claimTracker.Lock(ctx, claimer)
		if err != nil {
			return err
		}
		defer unlockTalent()
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.bountyRepo.Close(ctx, bounty.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot close bounty: %v", err)
		return errorx.Unknown
	}

	if claimer != "" {
		if err := d.claimTracker.ReleaseSlot(ctx, claimer); err != nil {
			return err
		}

		err := expireIdempotencyKeys(ctx, d.idempotencyRepo, entity.IdempotencyClaimBounty, claimer, bounty.ID)
		if err != nil {
			return err
		}
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit closing bounty: %v", err)
		return errorx.Unknown
	}

	bounty.Status = entity.BountyClosed
	bounty.ClaimedBy = sql.NullString{}
	return nil
}

func (d *bountyDomain) CloseExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	bounties, err := d.bountyRepo.GetExpiredOpen(ctx, now, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get expired bounties: %v", err)
		return 0, errorx.Unknown
	}

	closed := 0
	for _, b := range bounties {
		err := func() error {
			unlock, err := d.lockBounty(ctx, b.ID)
			if err != nil {
				return err
			}
			defer unlock()

			// The bounty may have been claimed after it was listed.
			bounty, err := getBounty(ctx, d.bountyRepo, b.ID)
			if err != nil {
				return err
			}

			if bounty.Status != entity.BountyOpen {
				return nil
			}

			if err := d.close(ctx, bounty); err != nil {
				return err
			}

			closed++
			return nil
		}()

		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot close expired bounty %s: %v", b.ID, err)
		}
	}

	return closed, nil
}

func (d *bountyDomain) Get(
	ctx context.Context, req *model.GetBountyRequest,
) (*model.GetBountyResponse, error) {
	bounty, err := getBounty(ctx, d.bountyRepo, req.BountyID)
	if err != nil {
		return nil, err
	}

	return &model.GetBountyResponse{Bounty: model.ConvertBounty(bounty)}, nil
}

func (d *bountyDomain) GetList(
	ctx context.Context, req *model.GetListBountyRequest,
) (*model.GetListBountyResponse, error) {
	offset, limit, err := common.Paginate(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := repository.BountyFilter{CompanyID: req.CompanyID}
	if req.Status != "" {
		status, err := enum.ToEnum[entity.BountyStatus](req.Status)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Invalid bounty status: %v", err)
			return nil, errorx.New(errorx.BadRequest, "Invalid status")
		}
		filter.Statuses = []entity.BountyStatus{status}
	}

	bounties, err := d.bountyRepo.GetList(ctx, filter, offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get list bounty: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Bounty{}
	for i := range bounties {
		result = append(result, model.ConvertBounty(&bounties[i]))
	}

	return &model.GetListBountyResponse{Bounties: result}, nil
}

func (d *bountyDomain) GetApplicants(
	ctx context.Context, req *model.GetApplicantsRequest,
) (*model.GetApplicantsResponse, error) {
	bounty, err := getBounty(ctx, d.bountyRepo, req.BountyID)
	if err != nil {
		return nil, err
	}

	if bounty.CompanyID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Only the owner can see the applicants")
	}

	applicants, err := d.applicantRepo.GetListByBountyID(ctx, bounty.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get applicants: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Applicant{}
	for i := range applicants {
		result = append(result, model.ConvertApplicant(&applicants[i]))
	}

	return &model.GetApplicantsResponse{Applicants: result}, nil
}

func (d *bountyDomain) GetMyClaims(
	ctx context.Context, req *model.GetMyClaimsRequest,
) (*model.GetMyClaimsResponse, error) {
	offset, limit, err := common.Paginate(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	userID := xcontext.RequestUserID(ctx)
	filter := repository.BountyFilter{
		ClaimedBy: userID,
		Statuses:  []entity.BountyStatus{entity.BountyClaimed, entity.BountySubmitted},
	}

	if req.Status != "" {
		status, err := enum.ToEnum[entity.BountyStatus](req.Status)
		if err != nil || !slices.Contains(filter.Statuses, status) {
			return nil, errorx.New(errorx.BadRequest, "Invalid status")
		}
		filter.Statuses = []entity.BountyStatus{status}
	}

	bounties, err := d.bountyRepo.GetList(ctx, filter, offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get claimed bounties: %v", err)
		return nil, errorx.Unknown
	}

	activeCount, err := d.claimTracker.ActiveClaims(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := []model.Bounty{}
	for i := range bounties {
		result = append(result, model.ConvertBounty(&bounties[i]))
	}

	return &model.GetMyClaimsResponse{Bounties: result, ActiveCount: activeCount}, nil
}
