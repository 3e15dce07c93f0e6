package repository

import (
	"context"
	"time"

	"github.com/bountyhub-lab/backend/internal/entity"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type EventFilter struct {
	CompanyID string
	After     time.Time
}

type EventRepository interface {
	Create(ctx context.Context, data *entity.Event) error
	GetByID(ctx context.Context, id string) (*entity.Event, error)
	GetList(ctx context.Context, filter EventFilter, offset, limit int) ([]entity.Event, error)
	IncreaseRegistrations(ctx context.Context, id string) error
	DecreaseRegistrations(ctx context.Context, id string) error

	CreateRegistration(ctx context.Context, data *entity.EventRegistration) error
	GetRegistration(ctx context.Context, eventID, userID string) (*entity.EventRegistration, error)
	GetRegistrations(ctx context.Context, eventID string) ([]entity.EventRegistration, error)
	CountRegistrations(ctx context.Context, eventID string) (int64, error)
	DeleteRegistration(ctx context.Context, eventID, userID string) error
}

type eventRepository struct{}

func NewEventRepository() *eventRepository {
	return &eventRepository{}
}

func (r *eventRepository) Create(ctx context.Context, data *entity.Event) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	var result entity.Event
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *eventRepository) GetList(
	ctx context.Context, filter EventFilter, offset, limit int,
) ([]entity.Event, error) {
	var result []entity.Event
	tx := xcontext.DB(ctx).Model(&entity.Event{})
	if filter.CompanyID != "" {
		tx = tx.Where("company_id=?", filter.CompanyID)
	}

	if !filter.After.IsZero() {
		tx = tx.Where("event_date > ?", filter.After)
	}

	err := tx.Order("event_date ASC").Offset(offset).Limit(limit).Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// IncreaseRegistrations returns gorm.ErrRecordNotFound if the event is full.
func (r *eventRepository) IncreaseRegistrations(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Event{}).
		Where("id=? AND current_registrations < registered_quota", id).
		Update("current_registrations", gorm.Expr("current_registrations+?", 1))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *eventRepository) DecreaseRegistrations(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Event{}).
		Where("id=? AND current_registrations > 0", id).
		Update("current_registrations", gorm.Expr("current_registrations-?", 1))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *eventRepository) CreateRegistration(ctx context.Context, data *entity.EventRegistration) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *eventRepository) GetRegistration(
	ctx context.Context, eventID, userID string,
) (*entity.EventRegistration, error) {
	var result entity.EventRegistration
	err := xcontext.DB(ctx).
		Where("event_id=? AND user_id=?", eventID, userID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *eventRepository) GetRegistrations(
	ctx context.Context, eventID string,
) ([]entity.EventRegistration, error) {
	var result []entity.EventRegistration
	err := xcontext.DB(ctx).
		Where("event_id=?", eventID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *eventRepository) CountRegistrations(ctx context.Context, eventID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).
		Model(&entity.EventRegistration{}).
		Where("event_id=?", eventID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *eventRepository) DeleteRegistration(ctx context.Context, eventID, userID string) error {
	tx := xcontext.DB(ctx).
		Where("event_id=? AND user_id=?", eventID, userID).
		Delete(&entity.EventRegistration{})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
