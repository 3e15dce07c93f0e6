package cron

import (
	"context"
	"time"

	"github.com/bountyhub-lab/backend/internal/domain/ledger"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"golang.org/x/sync/errgroup"
)

const reconcileBatch = 200

// ReconcileLedgerCronJob checks that the balance of every account equals the sum of its
// transactions. Violations are only reported.
type ReconcileLedgerCronJob struct {
	accountRepo repository.AccountRepository
	ledger      ledger.Ledger
	interval    time.Duration
	parallelism int
}

func NewReconcileLedgerCronJob(
	accountRepo repository.AccountRepository,
	ledger ledger.Ledger,
	interval time.Duration,
	parallelism int,
) *ReconcileLedgerCronJob {
	if parallelism <= 0 {
		parallelism = 1
	}

	return &ReconcileLedgerCronJob{
		accountRepo: accountRepo,
		ledger:      ledger,
		interval:    interval,
		parallelism: parallelism,
	}
}

func (job *ReconcileLedgerCronJob) Do(ctx context.Context) {
	violations, checked := 0, 0
	afterID := ""
	for {
		ids, err := job.accountRepo.GetListID(ctx, afterID, reconcileBatch)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get account ids: %v", err)
			return
		}

		results := make([]error, len(ids))
		g := errgroup.Group{}
		g.SetLimit(job.parallelism)
		for i, id := range ids {
			i, id := i, id
			g.Go(func() error {
				results[i] = job.ledger.Reconcile(ctx, id)
				return nil
			})
		}
		_ = g.Wait()

		for i, err := range results {
			checked++
			if err == nil {
				continue
			}

			if errorx.Is(err, errorx.InvariantViolation) {
				violations++
			} else {
				xcontext.Logger(ctx).Warnf("Cannot reconcile account %s: %v", ids[i], err)
			}
		}

		if len(ids) < reconcileBatch {
			break
		}
		afterID = ids[len(ids)-1]
	}

	if violations > 0 {
		xcontext.Logger(ctx).Errorf("Found %d accounts with inconsistent balances out of %d", violations, checked)
	} else {
		xcontext.Logger(ctx).Infof("Reconciled %d accounts", checked)
	}
}

func (job *ReconcileLedgerCronJob) RunNow() bool {
	return false
}

func (job *ReconcileLedgerCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
