package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tnrbusiness/outreach/internal/domain"
	"gorm.io/gorm"
)

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	MarkDelivery(ctx context.Context, id string, attemptedAt time.Time, delivered bool) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Event, error)
}

type GormEventRepo struct {
	db *gorm.DB
}

func NewGormEventRepo(db *gorm.DB) *GormEventRepo {
	return &GormEventRepo{db: db}
}

func (r *GormEventRepo) Create(ctx context.Context, event *domain.Event) error {
	model := eventModelFromDomain(event)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if event != nil {
		*event = *eventModelToDomain(model)
	}
	return nil
}

func (r *GormEventRepo) MarkDelivery(ctx context.Context, id string, attemptedAt time.Time, delivered bool) error {
	result := r.db.WithContext(ctx).
		Model(&EventModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempted_at": attemptedAt,
			"delivered":    delivered,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var model EventModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return eventModelToDomain(&model), nil
}

func (r *GormEventRepo) ListRecent(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit < 1 {
		limit = 50
	}

	var models []EventModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(models))
	for i := range models {
		events = append(events, *eventModelToDomain(&models[i]))
	}
	return events, nil
}
