package repository

import (
	"context"
	"time"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type BountyFilter struct {
	CompanyID string
	ClaimedBy string
	Statuses  []entity.BountyStatus
}

type BountyRepository interface {
	Create(ctx context.Context, data *entity.Bounty) error
	GetByID(ctx context.Context, id string) (*entity.Bounty, error)
	GetList(ctx context.Context, filter BountyFilter, offset, limit int) ([]entity.Bounty, error)
	Count(ctx context.Context, filter BountyFilter) (int64, error)
	GetExpiredOpen(ctx context.Context, now time.Time, limit int) ([]entity.Bounty, error)
	UpdateReward(ctx context.Context, id string, money, xp int64) error
	Claim(ctx context.Context, id, userID string) error
	Unclaim(ctx context.Context, id, userID string) error
	Submit(ctx context.Context, id, userID string) error
	Complete(ctx context.Context, id, winnerID string) error
	Close(ctx context.Context, id string) error
}

type bountyRepository struct{}

func NewBountyRepository() *bountyRepository {
	return &bountyRepository{}
}

func (r *bountyRepository) Create(ctx context.Context, data *entity.Bounty) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *bountyRepository) GetByID(ctx context.Context, id string) (*entity.Bounty, error) {
	var result entity.Bounty
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *bountyRepository) applyFilter(tx *gorm.DB, filter BountyFilter) *gorm.DB {
	if filter.CompanyID != "" {
		tx = tx.Where("company_id=?", filter.CompanyID)
	}

	if filter.ClaimedBy != "" {
		tx = tx.Where("claimed_by=?", filter.ClaimedBy)
	}

	if len(filter.Statuses) > 0 {
		tx = tx.Where("status IN (?)", filter.Statuses)
	}

	return tx
}

func (r *bountyRepository) GetList(
	ctx context.Context, filter BountyFilter, offset, limit int,
) ([]entity.Bounty, error) {
	var result []entity.Bounty
	tx := r.applyFilter(xcontext.DB(ctx).Model(&entity.Bounty{}), filter).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit)

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *bountyRepository) Count(ctx context.Context, filter BountyFilter) (int64, error) {
	var result int64
	tx := r.applyFilter(xcontext.DB(ctx).Model(&entity.Bounty{}), filter)
	if err := tx.Count(&result).Error; err != nil {
		return 0, err
	}

	return result, nil
}

func (r *bountyRepository) GetExpiredOpen(
	ctx context.Context, now time.Time, limit int,
) ([]entity.Bounty, error) {
	var result []entity.Bounty
	err := xcontext.DB(ctx).
		Where("status=? AND deadline IS NOT NULL AND deadline < ?", entity.BountyOpen, now).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// transition updates the bounty only if the where condition still holds. If no row is affected,
// it returns gorm.ErrRecordNotFound.
func (r *bountyRepository) transition(
	ctx context.Context, data map[string]any, query string, args ...any,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Bounty{}).
		Where(query, args...).
		Updates(data)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *bountyRepository) UpdateReward(ctx context.Context, id string, money, xp int64) error {
	return r.transition(ctx,
		map[string]any{"reward_money": money, "reward_xp": xp},
		"id=? AND status=?", id, entity.BountyOpen,
	)
}

func (r *bountyRepository) Claim(ctx context.Context, id, userID string) error {
	return r.transition(ctx,
		map[string]any{"status": entity.BountyClaimed, "claimed_by": userID},
		"id=? AND status=?", id, entity.BountyOpen,
	)
}

func (r *bountyRepository) Unclaim(ctx context.Context, id, userID string) error {
	return r.transition(ctx,
		map[string]any{"status": entity.BountyOpen, "claimed_by": nil},
		"id=? AND status=? AND claimed_by=?", id, entity.BountyClaimed, userID,
	)
}

func (r *bountyRepository) Submit(ctx context.Context, id, userID string) error {
	return r.transition(ctx,
		map[string]any{"status": entity.BountySubmitted},
		"id=? AND status=? AND claimed_by=?", id, entity.BountyClaimed, userID,
	)
}

func (r *bountyRepository) Complete(ctx context.Context, id, winnerID string) error {
	return r.transition(ctx,
		map[string]any{"status": entity.BountyCompleted, "winner_id": winnerID},
		"id=? AND status=? AND claimed_by=?", id, entity.BountySubmitted, winnerID,
	)
}

func (r *bountyRepository) Close(ctx context.Context, id string) error {
	return r.transition(ctx,
		map[string]any{"status": entity.BountyClosed, "claimed_by": nil},
		"id=? AND status IN (?)", id, []entity.BountyStatus{entity.BountyOpen, entity.BountyClaimed},
	)
}
