// Package ledger owns accounts and their append-only transaction history. The balance of an account
// always equals the sum of its completed transactions and never goes negative.
package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bountyhub-lab/backend/internal/common"
	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/internal/repository"
	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/keylock"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type Ledger interface {
	Lock(ctx context.Context, accountID string) (keylock.Unlock, error)
	Open(ctx context.Context, accountID string) (*entity.Account, error)
	Get(ctx context.Context, accountID string) (*entity.Account, error)

	// Credit records a completed EARNED transaction for the bounty and increases the balances. The
	// caller must hold the account lock and usually runs it inside its own transaction.
	Credit(ctx context.Context, accountID string, money, xp int64, bountyID, description string) (*entity.Transaction, error)

	// Withdraw locks the account by itself.
	Withdraw(ctx context.Context, accountID string, amount int64, methodID string) (*entity.Transaction, error)

	// Reconcile returns an InvariantViolation error if the stored balances differ from the sum of
	// completed transactions. It never corrects the balances.
	Reconcile(ctx context.Context, accountID string) error
}

type ledger struct {
	accountRepo       repository.AccountRepository
	transactionRepo   repository.TransactionRepository
	paymentMethodRepo repository.PaymentMethodRepository
	locker            keylock.Locker
}

func New(
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	paymentMethodRepo repository.PaymentMethodRepository,
	locker keylock.Locker,
) *ledger {
	return &ledger{
		accountRepo:       accountRepo,
		transactionRepo:   transactionRepo,
		paymentMethodRepo: paymentMethodRepo,
		locker:            locker,
	}
}

func (l *ledger) Lock(ctx context.Context, accountID string) (keylock.Unlock, error) {
	return common.AcquireLock(ctx, l.locker, "account", common.LockKeyAccount(accountID))
}

func (l *ledger) Open(ctx context.Context, accountID string) (*entity.Account, error) {
	unlock, err := l.Lock(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	account, err := l.accountRepo.GetByID(ctx, accountID)
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get account: %v", err)
		return nil, errorx.Unknown
	}

	account = &entity.Account{ID: accountID}
	if err := l.accountRepo.Create(ctx, account); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create account: %v", err)
		return nil, errorx.Unknown
	}

	return account, nil
}

func (l *ledger) Get(ctx context.Context, accountID string) (*entity.Account, error) {
	account, err := l.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found account")
		}

		xcontext.Logger(ctx).Errorf("Cannot get account: %v", err)
		return nil, errorx.Unknown
	}

	return account, nil
}

func (l *ledger) Credit(
	ctx context.Context, accountID string, money, xp int64, bountyID, description string,
) (*entity.Transaction, error) {
	if money < 0 || xp < 0 {
		return nil, errorx.New(errorx.BadRequest, "Credit amount must not be negative")
	}

	if _, err := l.Get(ctx, accountID); err != nil {
		return nil, err
	}

	_, err := l.transactionRepo.GetByBountyID(ctx, bountyID)
	if err == nil {
		common.IncCounter(common.InvariantViolationTotal, "duplicated_payout")
		xcontext.Logger(ctx).Errorf("Bounty %s has been paid out already", bountyID)
		return nil, errorx.New(errorx.InvariantViolation, "The bounty has been paid out already")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get transaction of bounty: %v", err)
		return nil, errorx.Unknown
	}

	tx := &entity.Transaction{
		SnowFlakeBase: entity.SnowFlakeBase{ID: xcontext.SnowFlake(ctx).Generate().Int64()},
		AccountID:     accountID,
		Kind:          entity.TransactionEarned,
		Status:        entity.TransactionCompleted,
		Amount:        money,
		XP:            xp,
		Description:   description,
		BountyID:      sql.NullString{Valid: true, String: bountyID},
	}

	if err := l.transactionRepo.Create(ctx, tx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create transaction: %v", err)
		return nil, errorx.Unknown
	}

	if err := l.accountRepo.Increase(ctx, accountID, money, xp); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot increase balance: %v", err)
		return nil, errorx.Unknown
	}

	return tx, nil
}

func (l *ledger) Withdraw(
	ctx context.Context, accountID string, amount int64, methodID string,
) (*entity.Transaction, error) {
	if amount <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Amount must be positive")
	}

	if min := xcontext.Configs(ctx).Ledger.MinWithdrawal; amount < min {
		return nil, errorx.New(errorx.BadRequest, "Amount must be at least %d", min)
	}

	method, err := l.paymentMethodRepo.GetByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.MethodNotFound, "Not found payment method")
		}

		xcontext.Logger(ctx).Errorf("Cannot get payment method: %v", err)
		return nil, errorx.Unknown
	}

	if method.AccountID != accountID {
		return nil, errorx.New(errorx.MethodNotFound, "Not found payment method")
	}

	unlock, err := l.Lock(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	account, err := l.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.BalanceMoney < amount {
		return nil, errorx.New(errorx.InsufficientBalance,
			"Insufficient balance, you only have %d", account.BalanceMoney)
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	tx := &entity.Transaction{
		SnowFlakeBase:   entity.SnowFlakeBase{ID: xcontext.SnowFlake(ctx).Generate().Int64()},
		AccountID:       accountID,
		Kind:            entity.TransactionWithdrawn,
		Status:          entity.TransactionPending,
		Amount:          amount,
		Description:     "Withdraw to " + method.Label,
		PaymentMethodID: sql.NullString{Valid: true, String: method.ID},
	}

	if err := l.transactionRepo.Create(ctx, tx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create transaction: %v", err)
		return nil, errorx.Unknown
	}

	if err := l.accountRepo.DecreaseMoney(ctx, accountID, amount); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InsufficientBalance, "Insufficient balance")
		}

		xcontext.Logger(ctx).Errorf("Cannot decrease balance: %v", err)
		return nil, errorx.Unknown
	}

	err = l.transactionRepo.UpdateStatus(ctx, tx.ID, entity.TransactionPending, entity.TransactionCompleted)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot complete transaction: %v", err)
		return nil, errorx.Unknown
	}
	tx.Status = entity.TransactionCompleted

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit withdrawal: %v", err)
		return nil, errorx.Unknown
	}

	return tx, nil
}

func (l *ledger) Reconcile(ctx context.Context, accountID string) error {
	unlock, err := l.Lock(ctx, accountID)
	if err != nil {
		return err
	}
	defer unlock()

	account, err := l.Get(ctx, accountID)
	if err != nil {
		return err
	}

	sum, err := l.transactionRepo.SumCompleted(ctx, accountID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot sum transactions: %v", err)
		return errorx.Unknown
	}

	if account.BalanceMoney < 0 || account.BalanceXP < 0 {
		common.IncCounter(common.InvariantViolationTotal, "negative_balance")
		xcontext.Logger(ctx).Errorf("Account %s has negative balance: money=%d xp=%d",
			accountID, account.BalanceMoney, account.BalanceXP)
		return errorx.New(errorx.InvariantViolation, "Negative balance")
	}

	if sum.Money != account.BalanceMoney || sum.XP != account.BalanceXP {
		common.IncCounter(common.InvariantViolationTotal, "balance_mismatch")
		xcontext.Logger(ctx).Errorf(
			"Balance of account %s mismatches its transactions: stored=(%d, %d) computed=(%d, %d)",
			accountID, account.BalanceMoney, account.BalanceXP, sum.Money, sum.XP)
		return errorx.New(errorx.InvariantViolation, "Balance mismatches transaction history")
	}

	return nil
}
