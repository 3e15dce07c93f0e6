package testutil

import (
	"context"

	"github.com/bountyhub-lab/backend/pkg/xcontext"
)

func CreateFixtureDb(ctx context.Context) {
	InsertAccounts(ctx)
	InsertTransactions(ctx)
	InsertPaymentMethods(ctx)
	InsertBounties(ctx)
	InsertEvents(ctx)
}

func insert[T any](ctx context.Context, records []*T) {
	for _, r := range records {
		// Copy to keep the package level samples untouched by gorm callbacks.
		record := *r
		if err := xcontext.DB(ctx).Create(&record).Error; err != nil {
			panic(err)
		}
	}
}

func InsertAccounts(ctx context.Context) {
	insert(ctx, Accounts)
}

func InsertTransactions(ctx context.Context) {
	insert(ctx, Transactions)
}

func InsertPaymentMethods(ctx context.Context) {
	insert(ctx, PaymentMethods)
}

func InsertBounties(ctx context.Context) {
	insert(ctx, Bounties)
}

func InsertEvents(ctx context.Context) {
	insert(ctx, Events)
	insert(ctx, EventRegistrations)
}
