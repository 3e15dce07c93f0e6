package cron

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bountyhub-lab/backend/internal/domain"
	"github.com/bountyhub-lab/backend/internal/domain/claimtracker"
	"github.com/bountyhub-lab/backend/internal/domain/ledger"
	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/keylock"
	"github.com/bountyhub-lab/backend/pkg/testutil"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
}

func (job *countingJob) Do(context.Context) { job.runs.Add(1) }
func (job *countingJob) RunNow() bool       { return true }
func (job *countingJob) Next() time.Time    { return time.Now().Add(10 * time.Millisecond) }

func TestCronJobManager(t *testing.T) {
	ctx := testutil.NewMockContext()
	m := NewCronJobManager()
	job := &countingJob{}
	m.Register(job)

	stopped := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return job.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	m.Cancel(ctx)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}
}

type panicJob struct {
	runs atomic.Int32
}

func (job *panicJob) Do(context.Context) {
	job.runs.Add(1)
	panic("boom")
}
func (job *panicJob) RunNow() bool    { return true }
func (job *panicJob) Next() time.Time { return time.Now().Add(10 * time.Millisecond) }

func TestCronJobManager_Panic(t *testing.T) {
	ctx := testutil.NewMockContext()
	m := NewCronJobManager()
	job := &panicJob{}
	m.Register(job)

	go m.Start(ctx)
	defer m.Cancel(ctx)

	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func newLedger(locker keylock.Locker) ledger.Ledger {
	return ledger.New(
		repository.NewAccountRepository(),
		repository.NewTransactionRepository(),
		repository.NewPaymentMethodRepository(),
		locker,
	)
}

func TestExpireBountyCronJob(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	locker := keylock.NewLocalLocker(time.Second)
	bountyRepo := repository.NewBountyRepository()

	bountyDomain := domain.NewBountyDomain(
		bountyRepo,
		repository.NewApplicantRepository(),
		repository.NewIdempotencyRepository(),
		claimtracker.New(repository.NewClaimSlotRepository(), locker),
		newLedger(locker),
		locker,
	)

	require.NoError(t, xcontext.DB(ctx).Model(&entity.Bounty{}).
		Where("id IN ?", []string{testutil.Bounty3.ID, testutil.Bounty4.ID}).
		Update("deadline", time.Now().Add(-time.Hour)).Error)

	NewExpireBountyCronJob(bountyDomain, time.Minute).Do(ctx)

	for _, id := range []string{testutil.Bounty3.ID, testutil.Bounty4.ID} {
		bounty, err := bountyRepo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, entity.BountyClosed, bounty.Status)
	}

	bounty, err := bountyRepo.GetByID(ctx, testutil.Bounty1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.BountyOpen, bounty.Status)
}

type recordingLedger struct {
	ledger.Ledger

	mu       sync.Mutex
	accounts []string
	errs     []error
}

func (l *recordingLedger) Reconcile(ctx context.Context, accountID string) error {
	err := l.Ledger.Reconcile(ctx, accountID)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = append(l.accounts, accountID)
	l.errs = append(l.errs, err)
	return err
}

func TestReconcileLedgerCronJob(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	l := &recordingLedger{Ledger: newLedger(keylock.NewLocalLocker(time.Second))}

	// Corrupt the balance of talent2.
	require.NoError(t, xcontext.DB(ctx).Model(&entity.Account{}).
		Where("id=?", testutil.Talent2).
		Update("balance_xp", 1).Error)

	NewReconcileLedgerCronJob(repository.NewAccountRepository(), l, time.Hour, 2).Do(ctx)

	require.ElementsMatch(t, []string{testutil.Talent1, testutil.Talent2, testutil.Talent3}, l.accounts)

	violations := 0
	for _, err := range l.errs {
		if err != nil {
			violations++
		}
	}
	require.Equal(t, 1, violations)

	// Nothing is corrected.
	account, err := repository.NewAccountRepository().GetByID(ctx, testutil.Talent2)
	require.NoError(t, err)
	require.Equal(t, int64(1), account.BalanceXP)
}
