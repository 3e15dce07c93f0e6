package repository

import (
	"context"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
)

type IdempotencyRepository interface {
	Get(ctx context.Context, scope entity.IdempotencyScope, userID, key string) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, data *entity.IdempotencyKey) error
	DeleteByResource(ctx context.Context, scope entity.IdempotencyScope, userID, resourceID string) error
}

type idempotencyRepository struct{}

func NewIdempotencyRepository() *idempotencyRepository {
	return &idempotencyRepository{}
}

func (r *idempotencyRepository) Get(
	ctx context.Context, scope entity.IdempotencyScope, userID, key string,
) (*entity.IdempotencyKey, error) {
	var result entity.IdempotencyKey
	err := xcontext.DB(ctx).
		Where("scope=? AND user_id=? AND idempotency_key=?", scope, userID, key).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, data *entity.IdempotencyKey) error {
	return xcontext.DB(ctx).Create(data).Error
}

// DeleteByResource expires every key the user has spent on the resource.
func (r *idempotencyRepository) DeleteByResource(
	ctx context.Context, scope entity.IdempotencyScope, userID, resourceID string,
) error {
	return xcontext.DB(ctx).
		Where("scope=? AND user_id=? AND resource_id=?", scope, userID, resourceID).
		Delete(&entity.IdempotencyKey{}).Error
}
