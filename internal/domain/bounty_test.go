package domain

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bountyhub-lab/backend/internal/domain/claimtracker"
	"github.com/bountyhub-lab/backend/internal/domain/ledger"
	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/internal/model"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/keylock"
	"github.com/bountyhub-lab/backend/pkg/testutil"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestLedger(locker keylock.Locker) ledger.Ledger {
	return ledger.New(
		repository.NewAccountRepository(),
		repository.NewTransactionRepository(),
		repository.NewPaymentMethodRepository(),
		locker,
	)
}

func newTestBountyDomain(locker keylock.Locker) *bountyDomain {
	return NewBountyDomain(
		repository.NewBountyRepository(),
		repository.NewApplicantRepository(),
		repository.NewIdempotencyRepository(),
		claimtracker.New(repository.NewClaimSlotRepository(), locker),
		newTestLedger(locker),
		locker,
	)
}

func createOpenBounty(t *testing.T, ctx context.Context, id, companyID string) *entity.Bounty {
	bounty := &entity.Bounty{
		Base:        entity.Base{ID: id},
		CompanyID:   companyID,
		Title:       id,
		RewardMoney: 10,
		RewardXP:    5,
		Status:      entity.BountyOpen,
	}
	require.NoError(t, repository.NewBountyRepository().Create(ctx, bounty))
	return bounty
}

func Test_bountyDomain_Create(t *testing.T) {
	ctx := testutil.NewMockContext()
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))
	companyCtx := testutil.NewMockContextWithUserID(ctx, testutil.Company1)

	resp, err := d.Create(companyCtx, &model.CreateBountyRequest{
		Title:       "Build a widget",
		RewardMoney: 100,
		RewardXP:    10,
		Deadline:    time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, testutil.Company1, resp.Bounty.CompanyID)
	require.Equal(t, string(entity.BountyOpen), resp.Bounty.Status)
	require.NotEmpty(t, resp.Bounty.Deadline)

	got, err := d.Get(companyCtx, &model.GetBountyRequest{BountyID: resp.Bounty.ID})
	require.NoError(t, err)
	require.Equal(t, "Build a widget", got.Bounty.Title)

	_, err = d.Create(companyCtx, &model.CreateBountyRequest{Title: "x", RewardMoney: -1})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = d.Create(companyCtx, &model.CreateBountyRequest{Title: ""})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = d.Create(companyCtx, &model.CreateBountyRequest{
		Title:    "x",
		Deadline: time.Now().Add(-time.Hour),
	})
	require.True(t, errorx.Is(err, errorx.BadRequest))
}

func Test_bountyDomain_UpdateReward(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))

	// Only the owner can change the reward.
	_, err := d.UpdateReward(testutil.NewMockContextWithUserID(ctx, testutil.Company2),
		&model.UpdateBountyRewardRequest{BountyID: testutil.Bounty1.ID, RewardMoney: 1})
	require.True(t, errorx.Is(err, errorx.PermissionDenied))

	companyCtx := testutil.NewMockContextWithUserID(ctx, testutil.Company1)
	resp, err := d.UpdateReward(companyCtx, &model.UpdateBountyRewardRequest{
		BountyID: testutil.Bounty1.ID, RewardMoney: 500, RewardXP: 60,
	})
	require.NoError(t, err)
	require.Equal(t, int64(500), resp.Bounty.RewardMoney)

	_, err = d.Claim(testutil.NewMockContextWithUserID(ctx, testutil.Talent1),
		&model.ClaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.NoError(t, err)

	_, err = d.UpdateReward(companyCtx, &model.UpdateBountyRewardRequest{
		BountyID: testutil.Bounty1.ID, RewardMoney: 1,
	})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))
}

func Test_bountyDomain_ClaimLifecycle(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))
	talentCtx := testutil.NewMockContextWithUserID(ctx, testutil.Talent1)

	resp, err := d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.NoError(t, err)
	require.Equal(t, string(entity.BountyClaimed), resp.Bounty.Status)
	require.Equal(t, testutil.Talent1, resp.Bounty.ClaimedBy)
	require.Empty(t, resp.Warning)

	// Claiming twice is a no-op and does not consume another slot.
	_, err = d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.NoError(t, err)

	claims, err := d.GetMyClaims(talentCtx, &model.GetMyClaimsRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, claims.ActiveCount)
	require.Len(t, claims.Bounties, 1)

	// Another talent cannot claim it.
	_, err = d.Claim(testutil.NewMockContextWithUserID(ctx, testutil.Talent2),
		&model.ClaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.True(t, errorx.Is(err, errorx.AlreadyClaimed))

	// Only the holder can submit, and the url must be valid.
	_, err = d.Submit(testutil.NewMockContextWithUserID(ctx, testutil.Talent2),
		&model.SubmitWorkRequest{BountyID: testutil.Bounty1.ID, URL: "https://example.com/work"})
	require.True(t, errorx.Is(err, errorx.NotClaimedByCaller))

	_, err = d.Submit(talentCtx, &model.SubmitWorkRequest{BountyID: testutil.Bounty1.ID, URL: "not a url"})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	submitResp, err := d.Submit(talentCtx, &model.SubmitWorkRequest{
		BountyID: testutil.Bounty1.ID,
		URL:      "https://example.com/work",
		Notes:    "done",
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.BountySubmitted), submitResp.Bounty.Status)

	// A submitted bounty cannot be unclaimed or closed.
	_, err = d.Unclaim(talentCtx, &model.UnclaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))

	_, err = d.Close(testutil.NewMockContextWithUserID(ctx, testutil.Company1),
		&model.CloseBountyRequest{BountyID: testutil.Bounty1.ID})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))

	applicants, err := d.GetApplicants(testutil.NewMockContextWithUserID(ctx, testutil.Company1),
		&model.GetApplicantsRequest{BountyID: testutil.Bounty1.ID})
	require.NoError(t, err)
	require.Len(t, applicants.Applicants, 1)
	require.Equal(t, "https://example.com/work", applicants.Applicants[0].SubmissionURL)
	require.Equal(t, "done", applicants.Applicants[0].SubmissionNotes)

	_, err = d.GetApplicants(talentCtx, &model.GetApplicantsRequest{BountyID: testutil.Bounty1.ID})
	require.True(t, errorx.Is(err, errorx.PermissionDenied))
}

func Test_bountyDomain_Unclaim(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))
	talentCtx := testutil.NewMockContextWithUserID(ctx, testutil.Talent1)

	_, err := d.Unclaim(talentCtx, &model.UnclaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.True(t, errorx.Is(err, errorx.NotClaimedByCaller))

	_, err = d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.NoError(t, err)

	resp, err := d.Unclaim(talentCtx, &model.UnclaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.NoError(t, err)
	require.Equal(t, string(entity.BountyOpen), resp.Bounty.Status)
	require.Empty(t, resp.Bounty.ClaimedBy)

	n, err := d.claimTracker.ActiveClaims(ctx, testutil.Talent1)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	// The bounty is claimable again, even by the same talent.
	_, err = d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.NoError(t, err)
}

func Test_bountyDomain_Claim_Rejected(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))
	talentCtx := testutil.NewMockContextWithUserID(ctx, testutil.Talent1)

	_, err := d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: "unknown"})
	require.True(t, errorx.Is(err, errorx.NotFound))

	_, err = d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: testutil.BountyClosed.ID})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))

	expired := createOpenBounty(t, ctx, "expired", testutil.Company1)
	require.NoError(t, xcontext.DB(ctx).Model(expired).
		Update("deadline", time.Now().Add(-time.Minute)).Error)

	_, err = d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: expired.ID})
	require.True(t, errorx.Is(err, errorx.Unavailable))
}

func Test_bountyDomain_Claim_LevelWarning(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))

	// Talent1 has no xp, so the level is 1 while bounty2 requires level 5. The claim still
	// succeeds.
	resp, err := d.Claim(testutil.NewMockContextWithUserID(ctx, testutil.Talent1),
		&model.ClaimBountyRequest{BountyID: testutil.Bounty2.ID})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Warning)
	require.Equal(t, string(entity.BountyClaimed), resp.Bounty.Status)

	// Talent2 has 2500 xp which is level 3.
	bounty := createOpenBounty(t, ctx, "level3", testutil.Company1)
	require.NoError(t, xcontext.DB(ctx).Model(bounty).Update("min_level", 3).Error)

	resp, err = d.Claim(testutil.NewMockContextWithUserID(ctx, testutil.Talent2),
		&model.ClaimBountyRequest{BountyID: bounty.ID})
	require.NoError(t, err)
	require.Empty(t, resp.Warning)

	resp, err = d.Claim(testutil.NewMockContextWithUserID(ctx, testutil.TalentNoAccount),
		&model.ClaimBountyRequest{BountyID: testutil.Bounty3.ID})
	require.NoError(t, err)
	require.Empty(t, resp.Warning)
}

func Test_bountyDomain_Claim_Limit(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))
	talentCtx := testutil.NewMockContextWithUserID(ctx, testutil.Talent1)

	for _, id := range []string{testutil.Bounty1.ID, testutil.Bounty3.ID, testutil.Bounty4.ID} {
		_, err := d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: id})
		require.NoError(t, err)
	}

	_, err := d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: testutil.Bounty2.ID})
	require.True(t, errorx.Is(err, errorx.ClaimLimitExceeded))

	// The failed claim is rolled back entirely.
	bounty, err := d.Get(talentCtx, &model.GetBountyRequest{BountyID: testutil.Bounty2.ID})
	require.NoError(t, err)
	require.Equal(t, string(entity.BountyOpen), bounty.Bounty.Status)
	require.Empty(t, bounty.Bounty.ClaimedBy)

	// Closing a claimed bounty frees the slot.
	_, err = d.Close(testutil.NewMockContextWithUserID(ctx, testutil.Company2),
		&model.CloseBountyRequest{BountyID: testutil.Bounty3.ID})
	require.NoError(t, err)

	_, err = d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: testutil.Bounty2.ID})
	require.NoError(t, err)
}

func Test_bountyDomain_Claim_Concurrent(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(10 * time.Second))

	var mu sync.Mutex
	succeeded, alreadyClaimed := 0, 0

	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userCtx := testutil.NewMockContextWithUserID(ctx, fmt.Sprintf("talent-%d", i))
			_, err := d.Claim(userCtx, &model.ClaimBountyRequest{BountyID: testutil.Bounty1.ID})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errorx.Is(err, errorx.AlreadyClaimed) {
				alreadyClaimed++
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, succeeded)
	require.Equal(t, 9, alreadyClaimed)
}

func Test_bountyDomain_Claim_ConcurrentLimit(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(10 * time.Second))

	bountyIDs := []string{}
	for i := 0; i < 8; i++ {
		bountyIDs = append(bountyIDs, createOpenBounty(t, ctx, fmt.Sprintf("limit-%d", i), testutil.Company1).ID)
	}

	var mu sync.Mutex
	succeeded, exceeded := 0, 0

	wg := sync.WaitGroup{}
	talentCtx := testutil.NewMockContextWithUserID(ctx, testutil.Talent1)
	for _, id := range bountyIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: id})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errorx.Is(err, errorx.ClaimLimitExceeded) {
				exceeded++
			}
		}(id)
	}
	wg.Wait()

	require.Equal(t, 3, succeeded)
	require.Equal(t, 5, exceeded)

	slot, err := repository.NewClaimSlotRepository().Get(ctx, testutil.Talent1)
	require.NoError(t, err)
	require.Equal(t, 3, slot.ActiveClaims)

	// Only the claimed bounties moved out of OPEN.
	claimed := 0
	for _, id := range bountyIDs {
		bounty, err := repository.NewBountyRepository().GetByID(ctx, id)
		require.NoError(t, err)
		if bounty.Status == entity.BountyClaimed {
			claimed++
			require.Equal(t, testutil.Talent1, bounty.ClaimedBy.String)
		}
	}
	require.Equal(t, 3, claimed)
}

func Test_bountyDomain_Claim_Idempotency(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))
	talentCtx := testutil.NewMockContextWithUserID(ctx, testutil.Talent1)

	req := &model.ClaimBountyRequest{BountyID: testutil.Bounty1.ID, IdempotencyKey: "key1"}
	_, err := d.Claim(talentCtx, req)
	require.NoError(t, err)

	// A retry while the claim is held returns the claimed bounty.
	resp, err := d.Claim(talentCtx, req)
	require.NoError(t, err)
	require.Equal(t, string(entity.BountyClaimed), resp.Bounty.Status)

	// Unclaiming expires the key, so a late retry claims the bounty again instead of reporting
	// success for an open bounty.
	_, err = d.Unclaim(talentCtx, &model.UnclaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.NoError(t, err)

	resp, err = d.Claim(talentCtx, req)
	require.NoError(t, err)
	require.Equal(t, string(entity.BountyClaimed), resp.Bounty.Status)
	require.Equal(t, testutil.Talent1, resp.Bounty.ClaimedBy)

	slot, err := repository.NewClaimSlotRepository().Get(ctx, testutil.Talent1)
	require.NoError(t, err)
	require.Equal(t, 1, slot.ActiveClaims)

	// The key cannot be used for another bounty.
	_, err = d.Claim(talentCtx, &model.ClaimBountyRequest{BountyID: testutil.Bounty3.ID, IdempotencyKey: "key1"})
	require.True(t, errorx.Is(err, errorx.BadRequest))
}

func Test_bountyDomain_Claim_IdempotencyAfterClose(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))
	talentCtx := testutil.NewMockContextWithUserID(ctx, testutil.Talent1)

	req := &model.ClaimBountyRequest{BountyID: testutil.Bounty1.ID, IdempotencyKey: "key1"}
	_, err := d.Claim(talentCtx, req)
	require.NoError(t, err)

	_, err = d.Close(testutil.NewMockContextWithUserID(ctx, testutil.Company1),
		&model.CloseBountyRequest{BountyID: testutil.Bounty1.ID})
	require.NoError(t, err)

	// The claim was released by closing, the retry is rejected like a new claim.
	_, err = d.Claim(talentCtx, req)
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))
}

func Test_bountyDomain_Claim_Busy(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	locker := keylock.NewLocalLocker(50 * time.Millisecond)
	d := newTestBountyDomain(locker)

	unlock, err := d.lockBounty(ctx, testutil.Bounty1.ID)
	require.NoError(t, err)
	defer unlock()

	_, err = d.Claim(testutil.NewMockContextWithUserID(ctx, testutil.Talent1),
		&model.ClaimBountyRequest{BountyID: testutil.Bounty1.ID})
	require.True(t, errorx.Is(err, errorx.Busy))
	require.True(t, errorx.Retryable(err))
}

func Test_bountyDomain_CloseExpired(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))

	expired := createOpenBounty(t, ctx, "expired", testutil.Company1)
	require.NoError(t, xcontext.DB(ctx).Model(expired).
		Update("deadline", time.Now().Add(-time.Minute)).Error)

	n, err := d.CloseExpired(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := d.Get(ctx, &model.GetBountyRequest{BountyID: expired.ID})
	require.NoError(t, err)
	require.Equal(t, string(entity.BountyClosed), got.Bounty.Status)

	// Bounty1 is not expired yet.
	got, err = d.Get(ctx, &model.GetBountyRequest{BountyID: testutil.Bounty1.ID})
	require.NoError(t, err)
	require.Equal(t, string(entity.BountyOpen), got.Bounty.Status)
}

func Test_bountyDomain_GetList(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestBountyDomain(keylock.NewLocalLocker(time.Second))

	resp, err := d.GetList(ctx, &model.GetListBountyRequest{CompanyID: testutil.Company2})
	require.NoError(t, err)
	require.Len(t, resp.Bounties, 2)

	resp, err = d.GetList(ctx, &model.GetListBountyRequest{Status: "closed"})
	require.NoError(t, err)
	require.Len(t, resp.Bounties, 1)
	require.Equal(t, testutil.BountyClosed.ID, resp.Bounties[0].ID)

	_, err = d.GetList(ctx, &model.GetListBountyRequest{Status: "unknown"})
	require.True(t, errorx.Is(err, errorx.BadRequest))
}
