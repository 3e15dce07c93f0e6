package repository

import (
	"context"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, data *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetListID(ctx context.Context, afterID string, limit int) ([]string, error)
	Increase(ctx context.Context, id string, money, xp int64) error
	DecreaseMoney(ctx context.Context, id string, amount int64) error
}

type accountRepository struct{}

func NewAccountRepository() *accountRepository {
	return &accountRepository{}
}

func (r *accountRepository) Create(ctx context.Context, data *entity.Account) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	var result entity.Account
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// GetListID returns ids of accounts in ascending order, starting after the given id.
func (r *accountRepository) GetListID(ctx context.Context, afterID string, limit int) ([]string, error) {
	var result []string
	err := xcontext.DB(ctx).
		Model(&entity.Account{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *accountRepository) Increase(ctx context.Context, id string, money, xp int64) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Account{}).
		Where("id=?", id).
		Updates(map[string]any{
			"balance_money": gorm.Expr("balance_money+?", money),
			"balance_xp":    gorm.Expr("balance_xp+?", xp),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// DecreaseMoney never lets the balance go negative. It returns gorm.ErrRecordNotFound if the
// account does not exist or its balance is not enough.
func (r *accountRepository) DecreaseMoney(ctx context.Context, id string, amount int64) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Account{}).
		Where("id=? AND balance_money >= ?", id, amount).
		Update("balance_money", gorm.Expr("balance_money-?", amount))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
