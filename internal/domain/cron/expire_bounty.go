package cron

import (
	"context"
	"time"

	"github.com/bountyhub-lab/backend/internal/domain"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
)

const expireBountyBatch = 100

// ExpireBountyCronJob closes open bounties whose deadline has passed.
type ExpireBountyCronJob struct {
	bountyDomain domain.BountyDomain
	interval     time.Duration
}

func NewExpireBountyCronJob(bountyDomain domain.BountyDomain, interval time.Duration) *ExpireBountyCronJob {
	return &ExpireBountyCronJob{bountyDomain: bountyDomain, interval: interval}
}

func (job *ExpireBountyCronJob) Do(ctx context.Context) {
	now := time.Now()
	total := 0
	for {
		n, err := job.bountyDomain.CloseExpired(ctx, now, expireBountyBatch)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot close expired bounties: %v", err)
			return
		}

		total += n
		if n < expireBountyBatch {
			break
		}
	}

	if total > 0 {
		xcontext.Logger(ctx).Infof("Closed %d expired bounties", total)
	}
}

func (job *ExpireBountyCronJob) RunNow() bool {
	return true
}

func (job *ExpireBountyCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
