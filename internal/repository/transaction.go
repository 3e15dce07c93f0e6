package repository

import (
	"context"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type TransactionSum struct {
	Money int64
	XP    int64
}

type TransactionRepository interface {
	Create(ctx context.Context, data *entity.Transaction) error
	GetByID(ctx context.Context, id int64) (*entity.Transaction, error)
	GetByBountyID(ctx context.Context, bountyID string) (*entity.Transaction, error)
	GetListByAccountID(ctx context.Context, accountID string, offset, limit int) ([]entity.Transaction, error)
	UpdateStatus(ctx context.Context, id int64, from, to entity.TransactionStatus) error
	SumCompleted(ctx context.Context, accountID string) (TransactionSum, error)
	GetListPayout(ctx context.Context, afterID int64, limit int) ([]entity.Transaction, error)
}

type transactionRepository struct{}

func NewTransactionRepository() *transactionRepository {
	return &transactionRepository{}
}

func (r *transactionRepository) Create(ctx context.Context, data *entity.Transaction) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*entity.Transaction, error) {
	var result entity.Transaction
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *transactionRepository) GetByBountyID(ctx context.Context, bountyID string) (*entity.Transaction, error) {
	var result entity.Transaction
	if err := xcontext.DB(ctx).Take(&result, "bounty_id=?", bountyID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *transactionRepository) GetListByAccountID(
	ctx context.Context, accountID string, offset, limit int,
) ([]entity.Transaction, error) {
	var result []entity.Transaction
	err := xcontext.DB(ctx).
		Where("account_id=?", accountID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *transactionRepository) UpdateStatus(
	ctx context.Context, id int64, from, to entity.TransactionStatus,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Transaction{}).
		Where("id=? AND status=?", id, from).
		Update("status", to)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// SumCompleted computes the balance of the account from its completed transactions.
func (r *transactionRepository) SumCompleted(ctx context.Context, accountID string) (TransactionSum, error) {
	var result TransactionSum
	err := xcontext.DB(ctx).
		Model(&entity.Transaction{}).
		Select(
			"COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE -amount END), 0) AS money, "+
				"COALESCE(SUM(CASE WHEN kind = ? THEN xp ELSE 0 END), 0) AS xp",
			entity.TransactionEarned, entity.TransactionEarned,
		).
		Where("account_id=? AND status=?", accountID, entity.TransactionCompleted).
		Scan(&result).Error
	if err != nil {
		return TransactionSum{}, err
	}

	return result, nil
}

// GetListPayout pages through completed bounty payouts in id order.
func (r *transactionRepository) GetListPayout(
	ctx context.Context, afterID int64, limit int,
) ([]entity.Transaction, error) {
	var result []entity.Transaction
	err := xcontext.DB(ctx).
		Where("id > ? AND bounty_id IS NOT NULL AND status=?", afterID, entity.TransactionCompleted).
		Order("id ASC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
