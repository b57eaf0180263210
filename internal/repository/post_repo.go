package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tnrbusiness/outreach/internal/domain"
	"gorm.io/gorm"
)

type PostListParams struct {
	Status   *domain.PostStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context, params PostListParams) ([]domain.Post, int64, error)
	ClaimForDispatch(ctx context.Context, id string) error
	SetResults(ctx context.Context, id string, status domain.PostStatus, results []domain.DispatchResult) error
	GetDueScheduled(ctx context.Context, now time.Time, limit int) ([]domain.Post, error)
}

type GormPostRepo struct {
	db *gorm.DB
}

func NewGormPostRepo(db *gorm.DB) *GormPostRepo {
	return &GormPostRepo{db: db}
}

func (r *GormPostRepo) Create(ctx context.Context, post *domain.Post) error {
	model, err := postModelFromDomain(post)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if post != nil {
		restored, err := postModelToDomain(model)
		if err != nil {
			return err
		}
		*post = *restored
	}
	return nil
}

func (r *GormPostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var model PostModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return postModelToDomain(&model)
}

func (r *GormPostRepo) List(ctx context.Context, params PostListParams) ([]domain.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&PostModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []PostModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	posts := make([]domain.Post, 0, len(models))
	for i := range models {
		post, err := postModelToDomain(&models[i])
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, *post)
	}

	return posts, total, nil
}

// ClaimForDispatch transitions a post from SCHEDULED to DISPATCHING. The
// conditional update makes the claim exclusive: whichever caller flips the
// row first owns the dispatch, everyone else gets ErrConflict.
func (r *GormPostRepo) ClaimForDispatch(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&PostModel{}).
		Where("id = ? AND status = ?", id, domain.PostStatusScheduled).
		Update("status", domain.PostStatusDispatching)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormPostRepo) SetResults(ctx context.Context, id string, status domain.PostStatus, results []domain.DispatchResult) error {
	model, err := postModelFromDomain(&domain.Post{Results: results})
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&PostModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  status,
			"results": model.Results,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormPostRepo) GetDueScheduled(ctx context.Context, now time.Time, limit int) ([]domain.Post, error) {
	var models []PostModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", domain.PostStatusScheduled, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(models))
	for i := range models {
		post, err := postModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, nil
}
