package repository

import (
	"context"
	"time"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ApplicantRepository interface {
	Create(ctx context.Context, data *entity.Applicant) error
	Get(ctx context.Context, bountyID, userID string) (*entity.Applicant, error)
	GetListByBountyID(ctx context.Context, bountyID string) ([]entity.Applicant, error)
	Delete(ctx context.Context, bountyID, userID string) error
	Submit(ctx context.Context, bountyID, userID, url, notes string, at time.Time) error
	MarkWinner(ctx context.Context, bountyID, userID string) error
}

type applicantRepository struct{}

func NewApplicantRepository() *applicantRepository {
	return &applicantRepository{}
}

func (r *applicantRepository) Create(ctx context.Context, data *entity.Applicant) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *applicantRepository) Get(ctx context.Context, bountyID, userID string) (*entity.Applicant, error) {
	var result entity.Applicant
	err := xcontext.DB(ctx).
		Where("bounty_id=? AND user_id=?", bountyID, userID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *applicantRepository) GetListByBountyID(
	ctx context.Context, bountyID string,
) ([]entity.Applicant, error) {
	var result []entity.Applicant
	err := xcontext.DB(ctx).
		Where("bounty_id=?", bountyID).
		Order("claimed_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *applicantRepository) Delete(ctx context.Context, bountyID, userID string) error {
	tx := xcontext.DB(ctx).
		Where("bounty_id=? AND user_id=?", bountyID, userID).
		Delete(&entity.Applicant{})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *applicantRepository) Submit(
	ctx context.Context, bountyID, userID, url, notes string, at time.Time,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Applicant{}).
		Where("bounty_id=? AND user_id=?", bountyID, userID).
		Updates(map[string]any{
			"submission_url":   url,
			"submission_notes": notes,
			"submitted_at":     at,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *applicantRepository) MarkWinner(ctx context.Context, bountyID, userID string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Applicant{}).
		Where("bounty_id=? AND user_id=? AND is_winner=?", bountyID, userID, false).
		Update("is_winner", true)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
