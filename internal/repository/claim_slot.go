package repository

import (
	"context"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClaimSlotRepository interface {
	Get(ctx context.Context, userID string) (*entity.ClaimSlot, error)
	Reserve(ctx context.Context, userID string, limit int) error
	Release(ctx context.Context, userID string) error
}

type claimSlotRepository struct{}

func NewClaimSlotRepository() *claimSlotRepository {
	return &claimSlotRepository{}
}

func (r *claimSlotRepository) Get(ctx context.Context, userID string) (*entity.ClaimSlot, error) {
	var result entity.ClaimSlot
	if err := xcontext.DB(ctx).Take(&result, "user_id=?", userID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// Reserve increases the number of active claims of user if it is still less than limit. It
// returns gorm.ErrRecordNotFound if the limit has been reached.
func (r *claimSlotRepository) Reserve(ctx context.Context, userID string, limit int) error {
	err := xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.ClaimSlot{UserID: userID, ActiveClaims: 0}).Error
	if err != nil {
		return err
	}

	tx := xcontext.DB(ctx).
		Model(&entity.ClaimSlot{}).
		Where("user_id=? AND active_claims < ?", userID, limit).
		Update("active_claims", gorm.Expr("active_claims+?", 1))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Release returns gorm.ErrRecordNotFound if the user has no active claim.
func (r *claimSlotRepository) Release(ctx context.Context, userID string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.ClaimSlot{}).
		Where("user_id=? AND active_claims > 0", userID).
		Update("active_claims", gorm.Expr("active_claims-?", 1))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
