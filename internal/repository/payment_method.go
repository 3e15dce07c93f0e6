package repository

import (
	"context"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
)

type PaymentMethodRepository interface {
	Create(ctx context.Context, data *entity.PaymentMethod) error
	GetByID(ctx context.Context, id string) (*entity.PaymentMethod, error)
	GetListByAccountID(ctx context.Context, accountID string) ([]entity.PaymentMethod, error)
}

type paymentMethodRepository struct{}

func NewPaymentMethodRepository() *paymentMethodRepository {
	return &paymentMethodRepository{}
}

func (r *paymentMethodRepository) Create(ctx context.Context, data *entity.PaymentMethod) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *paymentMethodRepository) GetByID(ctx context.Context, id string) (*entity.PaymentMethod, error) {
	var result entity.PaymentMethod
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *paymentMethodRepository) GetListByAccountID(
	ctx context.Context, accountID string,
) ([]entity.PaymentMethod, error) {
	var result []entity.PaymentMethod
	err := xcontext.DB(ctx).
		Where("account_id=?", accountID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
