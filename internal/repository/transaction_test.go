package repository

import (
	"database/sql"
	"testing"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

func Test_transactionRepository_SumCompleted(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.InsertAccounts(ctx)
	testutil.InsertTransactions(ctx)
	r := NewTransactionRepository()

	records := []*entity.Transaction{
		{
			SnowFlakeBase: entity.SnowFlakeBase{ID: 10},
			AccountID:     testutil.Talent1,
			Kind:          entity.TransactionEarned,
			Status:        entity.TransactionCompleted,
			Amount:        100,
			XP:            40,
			BountyID:      sql.NullString{Valid: true, String: testutil.Bounty1.ID},
		},
		{
			SnowFlakeBase: entity.SnowFlakeBase{ID: 11},
			AccountID:     testutil.Talent1,
			Kind:          entity.TransactionWithdrawn,
			Status:        entity.TransactionCompleted,
			Amount:        50,
		},
		{
			// Failed transactions do not count.
			SnowFlakeBase: entity.SnowFlakeBase{ID: 12},
			AccountID:     testutil.Talent1,
			Kind:          entity.TransactionWithdrawn,
			Status:        entity.TransactionFailed,
			Amount:        1000,
		},
	}
	for _, tx := range records {
		assert.NoError(t, r.Create(ctx, tx))
	}

	sum, err := r.SumCompleted(ctx, testutil.Talent1)
	assert.NoError(t, err)
	assert.Equal(t, int64(300+100-50), sum.Money)
	assert.Equal(t, int64(40), sum.XP)

	sum, err = r.SumCompleted(ctx, testutil.TalentNoAccount)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), sum.Money)

	payouts, err := r.GetListPayout(ctx, 0, 10)
	assert.NoError(t, err)
	assert.Len(t, payouts, 1)
	assert.Equal(t, int64(10), payouts[0].ID)

	payouts, err = r.GetListPayout(ctx, 10, 10)
	assert.NoError(t, err)
	assert.Empty(t, payouts)
}
